package bundler

// QualifyCrateRoot re-roots every `crate::` path through the wrapper module.
// Only the whole `crate` token followed by `::` is rewritten; identifiers
// such as `mycrate::` are left alone.
func QualifyCrateRoot(lines []string, wrapper string) []string {
	repl := "crate::" + wrapper + "::"
	for i, line := range lines {
		lines[i] = crateRootRe.ReplaceAllLiteralString(line, repl)
	}
	return lines
}
