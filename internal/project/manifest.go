package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing in Cargo.toml.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing in Cargo.toml.
	ErrPackageNameMissing = errors.New("missing [package].name")
	// ErrNoBinTarget indicates a crate without any binary to bundle.
	ErrNoBinTarget = errors.New("no binary target")
)

// BundleTable is the Cargo.toml table holding bundle defaults.
const BundleTable = "package.metadata.bundle"

// BundleConfig is the [package.metadata.bundle] table.
type BundleConfig struct {
	Banner    string `toml:"banner"`
	OneLine   bool   `toml:"one-line"`
	Output    string `toml:"output"`
	Bin       string `toml:"bin"`
	CrateName string `toml:"crate-name"`
}

// BinTarget is a binary entry point.
type BinTarget struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

type libTarget struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

type cargoToml struct {
	Package struct {
		Name     string `toml:"name"`
		Metadata struct {
			Bundle BundleConfig `toml:"bundle"`
		} `toml:"metadata"`
	} `toml:"package"`
	Lib libTarget   `toml:"lib"`
	Bin []BinTarget `toml:"bin"`
}

// Manifest is the part of Cargo.toml the bundler cares about.
type Manifest struct {
	Path    string
	Root    string
	Package string
	Bundle  BundleConfig

	lib  libTarget
	bins []BinTarget
}

// Load finds Cargo.toml from startDir upward and parses it.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindCargoToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// LoadManifest parses the Cargo.toml at path.
func LoadManifest(path string) (*Manifest, error) {
	var cfg cargoToml
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	m := &Manifest{
		Path:    path,
		Root:    filepath.Dir(path),
		Package: strings.TrimSpace(cfg.Package.Name),
		Bundle:  cfg.Package.Metadata.Bundle,
		lib:     cfg.Lib,
		bins:    cfg.Bin,
	}
	if name := m.Bundle.CrateName; name != "" && !IsValidCrateIdent(name) {
		return nil, fmt.Errorf("%s: invalid [%s].crate-name %q", path, BundleTable, name)
	}
	for i, bin := range m.bins {
		if strings.TrimSpace(bin.Name) == "" {
			return nil, fmt.Errorf("%s: [[bin]] entry %d is missing name", path, i+1)
		}
	}
	return m, nil
}

// CrateName returns the wrapper module name: the bundle override, the
// [lib].name, or the package name with dashes mapped to underscores.
func (m *Manifest) CrateName() string {
	if m.Bundle.CrateName != "" {
		return m.Bundle.CrateName
	}
	if name := strings.TrimSpace(m.lib.Name); name != "" {
		return name
	}
	return CrateIdent(m.Package)
}

// LibRoot returns the directory and module name of the library root.
// The default is src/lib; a [lib].path of "src/foo.rs" gives src/foo.
func (m *Manifest) LibRoot() (dir, name string) {
	p := strings.TrimSpace(m.lib.Path)
	if p == "" {
		return filepath.Join(m.Root, "src"), "lib"
	}
	p = filepath.Join(m.Root, filepath.FromSlash(p))
	base := filepath.Base(p)
	if base == "mod.rs" {
		return filepath.Dir(filepath.Dir(p)), filepath.Base(filepath.Dir(p))
	}
	return filepath.Dir(p), strings.TrimSuffix(base, filepath.Ext(base))
}

// Targets lists the crate's binaries. Explicit [[bin]] entries win;
// otherwise src/main.rs and src/bin/*.rs are discovered the way cargo does.
func (m *Manifest) Targets() ([]BinTarget, error) {
	if len(m.bins) > 0 {
		out := make([]BinTarget, 0, len(m.bins))
		for _, bin := range m.bins {
			p := strings.TrimSpace(bin.Path)
			if p == "" {
				p = filepath.Join("src", "bin", bin.Name+".rs")
			}
			out = append(out, BinTarget{Name: bin.Name, Path: filepath.Join(m.Root, filepath.FromSlash(p))})
		}
		return out, nil
	}

	var out []BinTarget
	mainPath := filepath.Join(m.Root, "src", "main.rs")
	if isRegular(mainPath) {
		out = append(out, BinTarget{Name: m.Package, Path: mainPath})
	}
	binDir := filepath.Join(m.Root, "src", "bin")
	entries, err := os.ReadDir(binDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %q: %w", binDir, err)
	}
	var found []BinTarget
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
			p := filepath.Join(binDir, name, "main.rs")
			if isRegular(p) {
				found = append(found, BinTarget{Name: name, Path: p})
			}
		case filepath.Ext(name) == ".rs":
			found = append(found, BinTarget{Name: strings.TrimSuffix(name, ".rs"), Path: filepath.Join(binDir, name)})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return append(out, found...), nil
}

// Target picks the binary to bundle. An empty name falls back to
// [package.metadata.bundle].bin, then to the only binary, then to the
// binary named after the package.
func (m *Manifest) Target(name string) (BinTarget, error) {
	targets, err := m.Targets()
	if err != nil {
		return BinTarget{}, err
	}
	if len(targets) == 0 {
		return BinTarget{}, fmt.Errorf("%s: %w", m.Path, ErrNoBinTarget)
	}
	if name == "" {
		name = m.Bundle.Bin
	}
	if name == "" {
		if len(targets) == 1 {
			return targets[0], nil
		}
		name = m.Package
	}
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		if t.Name == name {
			return t, nil
		}
		names = append(names, t.Name)
	}
	return BinTarget{}, fmt.Errorf("%s: no binary named %q (available: %s)", m.Path, name, strings.Join(names, ", "))
}

// OutputPath returns where the bundle for bin is written. The configured
// output may contain "{bin}", which is replaced by the binary name.
func (m *Manifest) OutputPath(bin BinTarget) string {
	out := strings.TrimSpace(m.Bundle.Output)
	if out == "" {
		out = bin.Name + "-bundle.rs"
	}
	out = strings.ReplaceAll(out, "{bin}", bin.Name)
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(m.Root, filepath.FromSlash(out))
}

// BannerPath returns the configured banner resolved against the project root.
func (m *Manifest) BannerPath() string {
	b := strings.TrimSpace(m.Bundle.Banner)
	if b == "" || filepath.IsAbs(b) {
		return b
	}
	return filepath.Join(m.Root, filepath.FromSlash(b))
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
