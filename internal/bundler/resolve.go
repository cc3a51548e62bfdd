package bundler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

const (
	sourceExt = ".rs"
	indexFile = "mod.rs"
)

// Resolution is the file a module declaration resolves to.
type Resolution struct {
	// Path is the module's source file.
	Path string
	// ChildDir is the base directory for the module's own submodules.
	ChildDir string
}

// Resolve maps a module name declared in dir onto the file system.
//
// Both `<dir>/<name>.rs` and `<dir>/<name>/mod.rs` are checked. When both
// exist the directory form wins, so a module can grow into a directory of
// submodules without deleting the flat file first.
func Resolve(dir, name string) (Resolution, error) {
	candidates := moduleCandidates(dir, name)

	found := -1
	for i, c := range candidates {
		ok, err := isFile(c.Path)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			found = i
		}
	}
	if found < 0 {
		return Resolution{}, fmt.Errorf("module %q: %w (tried %s, %s)",
			name, ErrModuleNotFound, candidates[0].Path, candidates[1].Path)
	}
	return candidates[found], nil
}

func moduleCandidates(dir, name string) [2]Resolution {
	return [2]Resolution{
		{Path: filepath.Join(dir, name+sourceExt), ChildDir: dir},
		{Path: filepath.Join(dir, name, indexFile), ChildDir: filepath.Join(dir, name)},
	}
}

// Layouts lists the files Resolve tries for module name in dir, in order.
func Layouts(dir, name string) []string {
	c := moduleCandidates(dir, name)
	return []string{c[0].Path, c[1].Path}
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	return !info.IsDir(), nil
}
