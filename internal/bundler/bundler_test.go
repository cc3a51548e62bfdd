package bundler

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"rsbundle/internal/observ"
)

func runBundle(t *testing.T, root string, opts Options) (string, Stats) {
	t.Helper()
	if opts.CrateName == "" {
		opts.CrateName = "mylib"
	}
	if opts.SrcDir == "" {
		opts.SrcDir = filepath.Join(root, "src")
	}
	if opts.BinFile == "" {
		opts.BinFile = filepath.Join(root, "src", "main.rs")
	}
	var out bytes.Buffer
	stats, err := New(opts, &out).Run()
	require.NoError(t, err)
	return out.String(), stats
}

func outputLines(out string) []string {
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func TestRunInlinesSubmodulesInOrder(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":  "pub mod a;\npub mod b;\n",
		"src/a.rs":    "pub fn a() {}\n",
		"src/b.rs":    "pub fn b() {}\n",
		"src/main.rs": "fn main() {}\n",
	})

	out, stats := runBundle(t, root, Options{})
	want := []string{
		"pub mod mylib {",
		"\tpub mod a {",
		"\t\tpub fn a() {}",
		"\t}",
		"\tpub mod b {",
		"\t\tpub fn b() {}",
		"\t}",
		"}",
		"fn main() {}",
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, Stats{Modules: 3, PrunedBlocks: 0, Lines: 9}, stats)
}

func TestRunIndentationFollowsDeclarationDepth(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib/mod.rs":        "pub const ROOT: u8 = 0;\nmod graph;\n",
		"src/lib/graph/mod.rs":  "mod edge;\npub const G: u8 = 1;\n",
		"src/lib/graph/edge.rs": "pub const E: u8 = 2;\n",
		"src/main.rs":           "fn main() {}\n",
	})

	out, _ := runBundle(t, root, Options{})
	want := []string{
		"pub mod mylib {",
		"\tpub const ROOT: u8 = 0;",
		"\tmod graph {",
		"\t\tmod edge {",
		"\t\t\tpub const E: u8 = 2;",
		"\t\t}",
		"\t\tpub const G: u8 = 1;",
		"\t}",
		"}",
		"fn main() {}",
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestRunPrefersDirectoryModule(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":   "mod a;\n",
		"src/a.rs":     "const FLAT: u8 = 0;\n",
		"src/a/mod.rs": "const DIR: u8 = 1;\n",
		"src/main.rs":  "fn main() {}\n",
	})

	out, _ := runBundle(t, root, Options{})
	require.Contains(t, out, "DIR")
	require.NotContains(t, out, "FLAT")
}

func TestRunPrunesTestModules(t *testing.T) {
	root := t.TempDir()
	math := strings.Join([]string{
		"pub fn add(a: i32, b: i32) -> i32 {",
		"    a + b",
		"}",
		"#[cfg(test)]",
		"mod math_tests {",
		"    #[test]",
		"    fn adds() { assert_eq!(super::add(1, 1), 2); }",
		"}",
	}, "\n")
	writeFiles(t, root, map[string]string{
		"src/lib.rs":   "pub mod math;\n#[cfg(test)]\nmod tests;\n",
		"src/math.rs":  math,
		"src/tests.rs": "#[test]\nfn it_works() {}\n",
		"src/main.rs":  "fn main() {}\n",
	})

	out, stats := runBundle(t, root, Options{})
	want := []string{
		"pub mod mylib {",
		"\tpub mod math {",
		"\t\tpub fn add(a: i32, b: i32) -> i32 {",
		"\t\t    a + b",
		"\t\t}",
		"\t}",
		"}",
		"fn main() {}",
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
	require.EqualValues(t, 2, stats.PrunedBlocks)
	require.EqualValues(t, 3, stats.Modules)
}

func TestRunRewritesCrateRootAndStripsComments(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":  "//! crate docs\npub mod a;\npub mod b;\n",
		"src/a.rs":    "// helper\nuse crate::b::B;\npub fn a() -> B { B }\n",
		"src/b.rs":    "/// the B\npub struct B;\n",
		"src/main.rs": "// entry\nuse mylib::a::a;\nfn main() { let _ = a(); }\n",
	})

	out, _ := runBundle(t, root, Options{})
	want := []string{
		"pub mod mylib {",
		"\tpub mod a {",
		"\t\tuse crate::mylib::b::B;",
		"\t\tpub fn a() -> B { B }",
		"\t}",
		"\tpub mod b {",
		"\t\tpub struct B;",
		"\t}",
		"}",
		"use mylib::a::a;",
		"fn main() { let _ = a(); }",
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestRunInlineModuleCopiedVerbatim(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":  "mod util {\n    pub fn u() {}\n}\n",
		"src/main.rs": "fn main() {}\n",
	})

	out, stats := runBundle(t, root, Options{})
	want := []string{
		"pub mod mylib {",
		"\tmod util {",
		"\t    pub fn u() {}",
		"\t}",
		"}",
		"fn main() {}",
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
	require.EqualValues(t, 1, stats.Modules)
}

func TestRunOneLine(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":  "pub mod a;\n",
		"src/a.rs":    "pub fn a() {}\n\npub fn b() {}\n",
		"src/main.rs": "fn main() {\n    mylib::a::a();\n}\n",
	})

	out, _ := runBundle(t, root, Options{OneLine: true})
	want := []string{
		"pub mod mylib { pub mod a { pub fn a() {} pub fn b() {} } }",
		"fn main() {",
		"    mylib::a::a();",
		"}",
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestRunBannerKeepsComments(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"banner.txt":  "// Author: someone\n// https://example.com\n",
		"src/lib.rs":  "pub fn f() {}\n",
		"src/main.rs": "fn main() {}\n",
	})

	out, stats := runBundle(t, root, Options{Banner: filepath.Join(root, "banner.txt"), OneLine: true})
	want := []string{
		"// Author: someone",
		"// https://example.com",
		"pub mod mylib { pub fn f() {} }",
		"fn main() {}",
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
	require.EqualValues(t, 4, stats.Lines)
}

func TestRunMissingModule(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":  "mod ghost;\n",
		"src/main.rs": "fn main() {}\n",
	})

	var out bytes.Buffer
	_, err := New(Options{
		CrateName: "mylib",
		SrcDir:    filepath.Join(root, "src"),
		BinFile:   filepath.Join(root, "src", "main.rs"),
	}, &out).Run()
	require.ErrorIs(t, err, ErrModuleNotFound)
	require.Contains(t, err.Error(), "ghost")
	require.Zero(t, out.Len(), "no partial output on failure")
}

func TestRunMissingEntryPoint(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/lib.rs": "pub fn f() {}\n"})

	_, err := New(Options{
		CrateName: "mylib",
		SrcDir:    filepath.Join(root, "src"),
		BinFile:   filepath.Join(root, "src", "nope.rs"),
	}, &bytes.Buffer{}).Run()
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
	require.Contains(t, err.Error(), "entry point")
}

func TestRunRequiresCrateName(t *testing.T) {
	_, err := New(Options{BinFile: "main.rs"}, &bytes.Buffer{}).Run()
	require.Error(t, err)
}

func TestRunDetectsSymlinkCycle(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":   "mod a;\n",
		"src/a/mod.rs": "mod b;\n",
		"src/main.rs":  "fn main() {}\n",
	})
	if err := os.Symlink(filepath.Join(root, "src", "a"), filepath.Join(root, "src", "a", "b")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := New(Options{
		CrateName: "mylib",
		SrcDir:    filepath.Join(root, "src"),
		BinFile:   filepath.Join(root, "src", "main.rs"),
	}, &bytes.Buffer{}).Run()
	require.ErrorIs(t, err, ErrModuleCycle)
}

func TestRunRecordsTimings(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":  "pub fn f() {}\n",
		"src/main.rs": "fn main() {}\n",
	})
	timer := observ.NewTimer()
	runBundle(t, root, Options{Timer: timer})

	var names []string
	for _, p := range timer.Report().Phases {
		names = append(names, p.Name)
	}
	want := []string{"inline", "prune", "qualify", "entry", "write"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("phases mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenTruncatesTarget(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":    "pub fn f() {}\n",
		"src/main.rs":   "fn main() {}\n",
		"out/bundle.rs": strings.Repeat("stale content\n", 50),
	})
	target := filepath.Join(root, "out", "bundle.rs")

	b, err := Open(Options{
		CrateName:  "mylib",
		SrcDir:     filepath.Join(root, "src"),
		BinFile:    filepath.Join(root, "src", "main.rs"),
		TargetFile: target,
	})
	require.NoError(t, err)
	_, err = b.Run()
	require.NoError(t, err)
	require.NoError(t, b.Close())

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "pub mod mylib {\n\tpub fn f() {}\n}\nfn main() {}\n", string(got))
}

func TestOpenCreatesTargetDirectory(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target", "bundle", "main.rs")
	b, err := Open(Options{CrateName: "mylib", BinFile: "main.rs", TargetFile: target})
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	info, err := os.Stat(target)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestRunCrateNameContainingTestsIsKept(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":  "pub fn f() {}\nmod tests {\n}\n",
		"src/main.rs": "fn main() {}\n",
	})

	out, stats := runBundle(t, root, Options{CrateName: "contests"})
	want := []string{
		"pub mod contests {",
		"\tpub fn f() {}",
		"}",
		"fn main() {}",
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
	require.EqualValues(t, 1, stats.PrunedBlocks)
}

func TestRunLogsNormalizedModuleFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/lib.rs":  "\xEF\xBB\xBFpub mod a;\r\n",
		"src/a.rs":    "pub fn a() {}\r\n",
		"src/main.rs": "fn main() {}\n",
	})

	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})
	out, _ := runBundle(t, root, Options{Logger: logger})

	want := []string{
		"pub mod mylib {",
		"\tpub mod a {",
		"\t\tpub fn a() {}",
		"\t}",
		"}",
		"fn main() {}",
	}
	if diff := cmp.Diff(want, outputLines(out)); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 1, strings.Count(logs.String(), "stripped byte order mark"))
	require.Equal(t, 2, strings.Count(logs.String(), "converted CRLF line endings"))
}
