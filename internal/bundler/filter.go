package bundler

// keepLine applies the comment filter: `//` lines survive only when
// keepComments is set.
func keepLine(line string, keepComments bool) bool {
	return keepComments || !isComment(line)
}
