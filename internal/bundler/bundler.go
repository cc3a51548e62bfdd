package bundler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"fortio.org/safecast"
	"github.com/charmbracelet/log"

	"rsbundle/internal/observ"
	"rsbundle/internal/source"
)

const (
	// DefaultSrcDir is where the library root is looked up.
	DefaultSrcDir = "src"
	// DefaultLibName is the library root module name.
	DefaultLibName = "lib"
)

// Options configures a single bundle run.
type Options struct {
	// CrateName names the wrapper module holding the library.
	CrateName string
	// SrcDir is the directory holding the library root. Defaults to "src".
	SrcDir string
	// LibName is the library root module. Defaults to "lib", so the root is
	// src/lib.rs or src/lib/mod.rs.
	LibName string
	// BinFile is the entry point appended after the library.
	BinFile string
	// TargetFile is the output path, used by Open.
	TargetFile string
	// OneLine collapses the library block to a single line.
	OneLine bool
	// Banner is an optional file emitted verbatim before everything else.
	Banner string

	// Logger receives progress records; nil discards them.
	Logger *log.Logger
	// Timer records one phase per pipeline step; nil disables timings.
	Timer *observ.Timer
}

func (o *Options) validate() error {
	if o.CrateName == "" {
		return errors.New("crate name is required")
	}
	if o.BinFile == "" {
		return errors.New("entry point file is required")
	}
	if o.SrcDir == "" {
		o.SrcDir = DefaultSrcDir
	}
	if o.LibName == "" {
		o.LibName = DefaultLibName
	}
	return nil
}

// Stats summarizes a finished run.
type Stats struct {
	Modules      uint32
	PrunedBlocks uint32
	Lines        uint32
}

// Bundler produces one bundled file. It is single use and not safe for
// concurrent use.
type Bundler struct {
	opts   Options
	out    io.Writer
	closer io.Closer
	buf    Buffer
	log    *log.Logger
	guard  cycleGuard

	modules int
	pruned  int
	lines   int
}

// Open creates (or truncates) opts.TargetFile and returns a Bundler writing to it.
// The caller must Close it.
func Open(opts Options) (*Bundler, error) {
	if opts.TargetFile == "" {
		return nil, errors.New("target file is required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(opts.TargetFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}
	f, err := os.Create(opts.TargetFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create %q: %w", opts.TargetFile, err)
	}
	b := New(opts, f)
	b.closer = f
	return b, nil
}

// New returns a Bundler writing to out.
func New(opts Options, out io.Writer) *Bundler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bundler{
		opts:  opts,
		out:   out,
		log:   logger,
		guard: make(cycleGuard),
	}
}

// Close releases the output file opened by Open.
func (b *Bundler) Close() error {
	if b.closer == nil {
		return nil
	}
	err := b.closer.Close()
	b.closer = nil
	return err
}

// Run bundles the banner, the library and the entry point and writes the result.
func (b *Bundler) Run() (Stats, error) {
	if err := b.opts.validate(); err != nil {
		return Stats{}, err
	}
	timer := b.opts.Timer

	if b.opts.Banner != "" {
		if err := timer.Track("banner", b.writeBanner); err != nil {
			return Stats{}, err
		}
	}
	steps := []struct {
		name string
		fn   func() error
		skip bool
	}{
		{name: "inline", fn: b.inlineLibrary},
		{name: "prune", fn: b.pruneTests},
		{name: "qualify", fn: b.qualify},
		{name: "minify", fn: b.minify, skip: !b.opts.OneLine},
		{name: "entry", fn: b.appendEntry},
		{name: "write", fn: b.flush},
	}
	for _, step := range steps {
		if step.skip {
			continue
		}
		if err := timer.Track(step.name, step.fn); err != nil {
			return Stats{}, err
		}
	}

	stats, err := b.stats()
	if err != nil {
		return Stats{}, err
	}
	b.log.Info("bundled crate", "crate", b.opts.CrateName, "modules", stats.Modules,
		"pruned", stats.PrunedBlocks, "lines", stats.Lines)
	return stats, nil
}

func (b *Bundler) emit(line string, depth int, keepComments bool) {
	if keepLine(line, keepComments) {
		b.buf.Write(line, depth)
	}
}

func (b *Bundler) writeBanner() error {
	file, err := source.Load(b.opts.Banner)
	if err != nil {
		return fmt.Errorf("banner: %w", err)
	}
	for _, line := range file.Lines {
		b.emit(line, 0, true)
	}
	return b.flush()
}

func (b *Bundler) inlineLibrary() error {
	b.buf.Write(fmt.Sprintf("pub mod %s {", b.opts.CrateName), 0)
	if err := b.inline(b.opts.SrcDir, b.opts.LibName, 1); err != nil {
		return err
	}
	b.buf.Write("}", 0)
	return nil
}

// pruneTests prunes inside the wrapper block only, so a crate whose own
// name contains "tests" is never dropped as a whole.
func (b *Bundler) pruneTests() error {
	lines := b.buf.Lines()
	if len(lines) < 2 {
		return nil
	}
	inner := lines[1 : len(lines)-1]
	ranges := findTestBlocks(inner)
	if len(ranges) == 0 {
		return nil
	}
	for _, r := range ranges {
		b.log.Debug("pruning test block", "start", r.start+2, "end", r.end+2, "line", inner[r.start])
	}
	b.pruned += len(ranges)

	out := make([]string, 0, len(lines))
	out = append(out, lines[0])
	out = append(out, deleteRanges(slices.Clone(inner), ranges)...)
	out = append(out, lines[len(lines)-1])
	b.buf.Replace(out)
	return nil
}

func (b *Bundler) qualify() error {
	b.buf.Replace(QualifyCrateRoot(b.buf.Lines(), b.opts.CrateName))
	return nil
}

func (b *Bundler) minify() error {
	b.buf.Replace([]string{Minify(b.buf.Lines())})
	return nil
}

func (b *Bundler) appendEntry() error {
	file, err := source.Load(b.opts.BinFile)
	if err != nil {
		return fmt.Errorf("entry point: %w", err)
	}
	for _, line := range file.Lines {
		b.emit(line, 0, false)
	}
	return nil
}

func (b *Bundler) flush() error {
	b.lines += b.buf.Len()
	if err := b.buf.Flush(b.out); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	return nil
}

func (b *Bundler) stats() (Stats, error) {
	var (
		s   Stats
		err error
	)
	if s.Modules, err = safecast.Conv[uint32](b.modules); err != nil {
		return Stats{}, fmt.Errorf("module count overflow: %w", err)
	}
	if s.PrunedBlocks, err = safecast.Conv[uint32](b.pruned); err != nil {
		return Stats{}, fmt.Errorf("pruned block count overflow: %w", err)
	}
	if s.Lines, err = safecast.Conv[uint32](b.lines); err != nil {
		return Stats{}, fmt.Errorf("line count overflow: %w", err)
	}
	return s, nil
}
