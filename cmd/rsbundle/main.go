// Package main implements the rsbundle CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rsbundle/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "rsbundle",
	Short: "Bundle a Rust crate into a single source file",
	Long: `rsbundle inlines a crate's library module tree and one binary entry point
into a single .rs file, for judges that accept only one source file.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return err
		}
		mode, err := readColorMode(colorFlag)
		if err != nil {
			return err
		}
		applyColorMode(mode)
		return nil
	},
}

// main registers subcommands and persistent flags and executes the root command.
// Errors are printed to stderr and the process exits with status code 1.
func main() {
	rootCmd.Version = version.Colored(version.Version)

	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every resolved module and pruned block")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(out *os.File, err error) {
	prefix := color.New(color.FgRed, color.Bold).Sprint("error:")
	_, _ = fmt.Fprintf(out, "%s %v\n", prefix, err)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
