package bundler

import "strings"

// Minify collapses lines into a single line. Lines are trimmed, empty ones
// dropped, and the rest joined with one space. Comments must already be
// stripped, a `//` would otherwise swallow the remainder of the output.
func Minify(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		// a blank line would leave a double space in the joined output
		if line == "" {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
