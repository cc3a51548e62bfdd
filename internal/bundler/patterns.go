package bundler

import "regexp"

// visibility matches `pub`, `pub(crate)`, `pub(super)` and `pub(in path)`.
const visibility = `(?:pub(?:\s*\([^)]*\))?\s+)?`

var (
	// mod name;
	modDeclRe = regexp.MustCompile(`^\s*` + visibility + `mod\s+(?P<modname>\w+)\s*;\s*$`)
	// mod name {   (or a bare `mod name` with the brace on the next line)
	modOpenRe   = regexp.MustCompile(`^\s*` + visibility + `mod\s+(?P<modname>\w+)(?:\s*\{)?\s*$`)
	commentRe   = regexp.MustCompile(`^\s*//.*$`)
	attributeRe = regexp.MustCompile(`^\s*#\[.+\]\s*$`)
	blankRe     = regexp.MustCompile(`^\s*$`)
	crateRootRe = regexp.MustCompile(`\bcrate::`)
)

// testModuleMarker is the substring that marks a module as test-only.
const testModuleMarker = "tests"

// moduleDecl reports whether line declares a file-bound submodule and returns its name.
func moduleDecl(line string) (string, bool) {
	m := modDeclRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[modDeclRe.SubexpIndex("modname")], true
}

// moduleOpener reports whether line opens a module block and returns its name.
func moduleOpener(line string) (string, bool) {
	m := modOpenRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[modOpenRe.SubexpIndex("modname")], true
}

func isComment(line string) bool   { return commentRe.MatchString(line) }
func isAttribute(line string) bool { return attributeRe.MatchString(line) }
func isBlank(line string) bool     { return blankRe.MatchString(line) }
