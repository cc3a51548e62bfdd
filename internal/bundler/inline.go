package bundler

import (
	"fmt"
	"path/filepath"
	"strings"

	"rsbundle/internal/source"
)

// inline emits module name, declared in dir, at depth. Each `mod x;` line
// becomes `mod x {`, followed by x's own content one level deeper and a
// closing brace.
func (b *Bundler) inline(dir, name string, depth int) error {
	res, err := Resolve(dir, name)
	if err != nil {
		return err
	}
	leave, err := b.guard.enter(res.Path)
	if err != nil {
		return err
	}
	defer leave()

	file, err := source.Load(res.Path)
	if err != nil {
		return fmt.Errorf("module %q: %w", name, err)
	}
	b.modules++
	b.log.Debug("inlining module", "module", name, "path", res.Path, "depth", depth)
	if file.Flags&source.FileHadBOM != 0 {
		b.log.Debug("stripped byte order mark", "path", res.Path)
	}
	if file.Flags&source.FileNormalizedCRLF != 0 {
		b.log.Debug("converted CRLF line endings", "path", res.Path)
	}

	for _, line := range file.Lines {
		child, ok := moduleDecl(line)
		if !ok {
			b.emit(line, depth, false)
			continue
		}
		opener, err := declToOpener(line)
		if err != nil {
			return fmt.Errorf("%s: %w", res.Path, err)
		}
		b.buf.Write(opener, depth)
		if err := b.inline(res.ChildDir, child, depth+1); err != nil {
			return err
		}
		b.buf.Write("}", depth)
	}
	return nil
}

// declToOpener turns `pub mod x;` into `pub mod x {`.
func declToOpener(line string) (string, error) {
	idx := strings.LastIndexByte(line, ';')
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrMalformedDecl, line)
	}
	return line[:idx] + " {", nil
}

// cycleGuard tracks the module files currently on the inlining stack.
type cycleGuard map[string]struct{}

func (g cycleGuard) enter(path string) (func(), error) {
	key := path
	if real, err := filepath.EvalSymlinks(path); err == nil {
		key = real
	}
	if _, ok := g[key]; ok {
		return nil, fmt.Errorf("%s: %w", path, ErrModuleCycle)
	}
	g[key] = struct{}{}
	return func() { delete(g, key) }, nil
}
