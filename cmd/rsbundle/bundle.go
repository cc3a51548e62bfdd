package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rsbundle/internal/bundler"
	"rsbundle/internal/observ"
	"rsbundle/internal/project"
	"rsbundle/internal/source"
)

const noCargoTomlMessage = "no Cargo.toml found\nplease run inside a crate or pass its path, e.g.:\n  rsbundle bundle path/to/crate"

var bundleCmd = &cobra.Command{
	Use:   "bundle [flags] [path]",
	Short: "Bundle a crate into a single .rs file",
	Long: `Bundle the crate at [path] (default: the current directory) into one file.
The library root (src/lib.rs or src/lib/mod.rs) is wrapped in "pub mod <crate>",
test modules are dropped and the chosen binary is appended.

Defaults come from [package.metadata.bundle] in Cargo.toml; flags override them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBundle,
}

func init() {
	bundleCmd.Flags().String("bin", "", "binary target to bundle")
	bundleCmd.Flags().StringP("output", "o", "", "output file ({bin} expands to the binary name)")
	bundleCmd.Flags().Bool("one-line", false, "collapse the library into a single line")
	bundleCmd.Flags().String("banner", "", "file emitted verbatim at the top of the bundle")
	bundleCmd.Flags().String("crate-name", "", "name of the wrapper module (default: package name)")
	bundleCmd.Flags().Bool("all", false, "bundle every binary target")
}

type bundleRequest struct {
	startDir   string
	bin        string
	output     string
	oneLine    bool
	oneLineSet bool
	banner     string
	crateName  string
	all        bool
	timings    bool
}

type bundleJob struct {
	bin  project.BinTarget
	opts bundler.Options
}

type bundleResult struct {
	job   bundleJob
	stats bundler.Stats
	timer *observ.Timer
}

func runBundle(cmd *cobra.Command, args []string) error {
	req, err := readBundleRequest(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	results, err := bundleProject(cmd.Context(), req, logger)
	if err != nil {
		return err
	}
	if quiet {
		return nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	out := cmd.OutOrStdout()
	for _, res := range results {
		printBundleResult(out, res, cwd)
		if req.timings {
			printTimings(out, res.timer)
		}
	}
	return nil
}

func readBundleRequest(cmd *cobra.Command, args []string) (bundleRequest, error) {
	var (
		req bundleRequest
		err error
	)
	req.startDir = "."
	if len(args) > 0 && args[0] != "" {
		req.startDir = args[0]
	}
	flags := cmd.Flags()
	if req.bin, err = flags.GetString("bin"); err != nil {
		return req, err
	}
	if req.output, err = flags.GetString("output"); err != nil {
		return req, err
	}
	if req.oneLine, err = flags.GetBool("one-line"); err != nil {
		return req, err
	}
	req.oneLineSet = flags.Changed("one-line")
	if req.banner, err = flags.GetString("banner"); err != nil {
		return req, err
	}
	if req.crateName, err = flags.GetString("crate-name"); err != nil {
		return req, err
	}
	if req.all, err = flags.GetBool("all"); err != nil {
		return req, err
	}
	if req.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return req, err
	}
	if req.all && req.bin != "" {
		return req, errors.New("--all and --bin are mutually exclusive")
	}
	return req, nil
}

// bundleProject loads the manifest found from req.startDir and writes one
// bundle per selected binary.
func bundleProject(ctx context.Context, req bundleRequest, logger *log.Logger) ([]bundleResult, error) {
	manifest, ok, err := project.Load(req.startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(noCargoTomlMessage)
	}
	jobs, err := planBundles(manifest, req, logger)
	if err != nil {
		return nil, err
	}
	return executeBundles(ctx, jobs, req.timings)
}

func planBundles(manifest *project.Manifest, req bundleRequest, logger *log.Logger) ([]bundleJob, error) {
	crateName := req.crateName
	if crateName == "" {
		crateName = manifest.CrateName()
	}
	if !project.IsValidCrateIdent(crateName) {
		return nil, fmt.Errorf("invalid crate name %q: set --crate-name or [%s].crate-name", crateName, project.BundleTable)
	}

	oneLine := manifest.Bundle.OneLine
	if req.oneLineSet {
		oneLine = req.oneLine
	}
	banner := manifest.BannerPath()
	if req.banner != "" {
		banner = req.banner
	}

	var targets []project.BinTarget
	if req.all {
		all, err := manifest.Targets()
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, fmt.Errorf("%s: %w", manifest.Path, project.ErrNoBinTarget)
		}
		targets = all
	} else {
		bin, err := manifest.Target(req.bin)
		if err != nil {
			return nil, err
		}
		targets = []project.BinTarget{bin}
	}
	if req.output != "" && len(targets) > 1 && !strings.Contains(req.output, "{bin}") {
		return nil, errors.New("--output must contain {bin} when bundling several binaries")
	}

	srcDir, libName := manifest.LibRoot()
	jobs := make([]bundleJob, 0, len(targets))
	for _, bin := range targets {
		output := manifest.OutputPath(bin)
		if req.output != "" {
			output = strings.ReplaceAll(req.output, "{bin}", bin.Name)
		}
		if sameFile(output, bin.Path) {
			return nil, fmt.Errorf("output %q would overwrite the entry point of %q", output, bin.Name)
		}
		jobs = append(jobs, bundleJob{
			bin: bin,
			opts: bundler.Options{
				CrateName:  crateName,
				SrcDir:     srcDir,
				LibName:    libName,
				BinFile:    bin.Path,
				TargetFile: output,
				OneLine:    oneLine,
				Banner:     banner,
				Logger:     logger.With("bin", bin.Name),
			},
		})
	}
	return jobs, nil
}

// executeBundles runs one Bundler per job. Each Bundler owns its buffer and
// output file, so jobs run concurrently; the first failure cancels the rest.
func executeBundles(ctx context.Context, jobs []bundleJob, timings bool) ([]bundleResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]bundleResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if timings {
				job.opts.Timer = observ.NewTimer()
			}
			stats, err := runJob(job.opts)
			if err != nil {
				return fmt.Errorf("bundle %s: %w", job.bin.Name, err)
			}
			results[i] = bundleResult{job: job, stats: stats, timer: job.opts.Timer}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runJob(opts bundler.Options) (stats bundler.Stats, err error) {
	b, err := bundler.Open(opts)
	if err != nil {
		return bundler.Stats{}, err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %q: %w", opts.TargetFile, cerr)
		}
	}()
	return b.Run()
}

func printBundleResult(out io.Writer, res bundleResult, cwd string) {
	target := res.job.opts.TargetFile
	if rel, err := source.RelativePath(target, cwd); err == nil {
		target = rel
	}
	_, _ = fmt.Fprintf(out, "%s %s -> %s (%d modules, %d test blocks pruned, %d lines)\n",
		color.New(color.FgGreen, color.Bold).Sprint("bundled"),
		res.job.bin.Name, target, res.stats.Modules, res.stats.PrunedBlocks, res.stats.Lines)
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	if absA == absB {
		return true
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}
