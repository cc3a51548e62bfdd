package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rsbundle/internal/bundler"
	"rsbundle/internal/project"
	"rsbundle/internal/source"
)

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Show the library module tree",
	Long: `Resolve the crate's module declarations the way bundle does and print the
resulting tree. Modules that bundle would drop as tests are marked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func runTree(cmd *cobra.Command, args []string) error {
	startDir := "."
	if len(args) > 0 && args[0] != "" {
		startDir = args[0]
	}
	manifest, ok, err := project.Load(startDir)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(noCargoTomlMessage)
	}
	srcDir, libName := manifest.LibRoot()
	tree, err := bundler.LoadTree(srcDir, libName)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (pub mod %s)\n", manifest.Package, manifest.CrateName())
	printTree(cmd.OutOrStdout(), tree, manifest.Root)
	return nil
}

// printTree renders the module tree with box-drawing guides, followed by a
// count line.
func printTree(out io.Writer, root *bundler.ModuleNode, baseDir string) {
	printTreeNode(out, root, baseDir, "", "")
	sum := root.Summary()
	_, _ = fmt.Fprintf(out, "%d modules, %d pruned, depth %d\n", sum.Modules, sum.Pruned, sum.MaxDepth)
}

func printTreeNode(out io.Writer, node *bundler.ModuleNode, baseDir, lead, childLead string) {
	path := node.Path
	if rel, err := source.RelativePath(path, baseDir); err == nil {
		path = rel
	}
	line := fmt.Sprintf("%s%s  %s", lead, node.Name, path)
	if node.Pruned {
		line += " " + color.New(color.FgYellow).Sprint("(pruned)")
	}
	_, _ = fmt.Fprintln(out, line)

	for i, child := range node.Children {
		if i == len(node.Children)-1 {
			printTreeNode(out, child, baseDir, childLead+"└── ", childLead+"    ")
		} else {
			printTreeNode(out, child, baseDir, childLead+"├── ", childLead+"│   ")
		}
	}
}
