package bundler

import (
	"fmt"
	"strings"

	"rsbundle/internal/source"
)

// ModuleNode is one file-bound module in a crate's declaration tree.
type ModuleNode struct {
	Name  string
	Path  string
	Depth int
	// Pruned is set for modules dropped from a bundle: their name, or an
	// ancestor's name, contains "tests".
	Pruned   bool
	Children []*ModuleNode
}

// LoadTree resolves the declaration tree rooted at srcDir/libName without
// inlining anything. Inline `mod x { ... }` blocks are not part of the tree.
func LoadTree(srcDir, libName string) (*ModuleNode, error) {
	if srcDir == "" {
		srcDir = DefaultSrcDir
	}
	if libName == "" {
		libName = DefaultLibName
	}
	return loadNode(make(cycleGuard), srcDir, libName, 0, false)
}

func loadNode(guard cycleGuard, dir, name string, depth int, pruned bool) (*ModuleNode, error) {
	res, err := Resolve(dir, name)
	if err != nil {
		return nil, err
	}
	leave, err := guard.enter(res.Path)
	if err != nil {
		return nil, err
	}
	defer leave()

	file, err := source.Load(res.Path)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", name, err)
	}
	node := &ModuleNode{
		Name:   name,
		Path:   res.Path,
		Depth:  depth,
		Pruned: pruned || (depth > 0 && strings.Contains(name, testModuleMarker)),
	}
	for _, line := range file.Lines {
		child, ok := moduleDecl(line)
		if !ok {
			continue
		}
		childNode, err := loadNode(guard, res.ChildDir, child, depth+1, node.Pruned)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
	}
	return node, nil
}

// TreeSummary counts the modules of a tree.
type TreeSummary struct {
	Modules  int
	Pruned   int
	MaxDepth int
}

// Summary walks the tree rooted at n.
func (n *ModuleNode) Summary() TreeSummary {
	var s TreeSummary
	n.Walk(func(m *ModuleNode) {
		s.Modules++
		if m.Pruned {
			s.Pruned++
		}
		s.MaxDepth = max(s.MaxDepth, m.Depth)
	})
	return s
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *ModuleNode) Walk(fn func(*ModuleNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
