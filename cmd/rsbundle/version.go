package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rsbundle/internal/bundler"
	"rsbundle/internal/project"
	"rsbundle/internal/version"
)

// versionReport is what `rsbundle version` prints: build metadata plus the
// crate layouts this build understands.
type versionReport struct {
	Tool          string   `json:"tool"`
	Version       string   `json:"version"`
	GitCommit     string   `json:"git_commit,omitempty"`
	BuildDate     string   `json:"build_date,omitempty"`
	Manifest      string   `json:"manifest"`
	BundleTable   string   `json:"bundle_table"`
	LibraryRoots  []string `json:"library_roots"`
	ModuleLayouts []string `json:"module_layouts"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the rsbundle version and supported crate layouts",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	report := collectVersionReport()
	switch strings.ToLower(format) {
	case "pretty":
		printVersionReport(cmd.OutOrStdout(), report)
		return nil
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func collectVersionReport() versionReport {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	return versionReport{
		Tool:          "rsbundle",
		Version:       v,
		GitCommit:     strings.TrimSpace(version.GitCommit),
		BuildDate:     strings.TrimSpace(version.BuildDate),
		Manifest:      project.ManifestName,
		BundleTable:   project.BundleTable,
		LibraryRoots:  slashPaths(bundler.Layouts(bundler.DefaultSrcDir, bundler.DefaultLibName)),
		ModuleLayouts: slashPaths(bundler.Layouts("<dir>", "<name>")),
	}
}

func printVersionReport(out io.Writer, r versionReport) {
	_, _ = fmt.Fprintf(out, "%s %s\n", r.Tool, version.Colored(r.Version))
	if r.GitCommit != "" {
		_, _ = fmt.Fprintf(out, "commit:   %s\n", r.GitCommit)
	}
	if r.BuildDate != "" {
		_, _ = fmt.Fprintf(out, "built:    %s\n", r.BuildDate)
	}
	_, _ = fmt.Fprintf(out, "manifest: %s [%s]\n", r.Manifest, r.BundleTable)
	_, _ = fmt.Fprintf(out, "library:  %s\n", strings.Join(r.LibraryRoots, " | "))
	_, _ = fmt.Fprintf(out, "modules:  %s\n", strings.Join(r.ModuleLayouts, " | "))
}

func slashPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
	}
	return out
}
