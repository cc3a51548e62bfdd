package bundler

import (
	"slices"
	"strings"
)

// lineRange is an inclusive range of buffer lines.
type lineRange struct {
	start, end int
}

// PruneTestBlocks deletes every module block whose name contains "tests",
// together with the attributes and blank lines directly above it.
//
// Block ends are found by counting braces per line. Braces inside string
// literals or comments are counted too; sources that unbalance them will be
// cut at the wrong place.
func PruneTestBlocks(lines []string) []string {
	return deleteRanges(lines, findTestBlocks(lines))
}

func findTestBlocks(lines []string) []lineRange {
	var ranges []lineRange
	floor := 0
	for i := 0; i < len(lines); i++ {
		name, ok := moduleOpener(lines[i])
		if !ok || !strings.Contains(name, testModuleMarker) {
			continue
		}
		r := lineRange{start: blockStart(lines, i, floor), end: blockEnd(lines, i)}
		ranges = append(ranges, r)
		i = r.end
		floor = r.end + 1
	}
	return ranges
}

// blockStart walks back from the opener over attributes and blank lines.
func blockStart(lines []string, opener, floor int) int {
	start := opener
	for start > floor && (isAttribute(lines[start-1]) || isBlank(lines[start-1])) {
		start--
	}
	return start
}

// blockEnd returns the line where the brace count, starting at the opener,
// drops back to zero after the block has opened. An unterminated block runs
// to the last line.
func blockEnd(lines []string, opener int) int {
	depth := 0
	opened := false
	for i := opener; i < len(lines); i++ {
		line := lines[i]
		open := strings.Count(line, "{")
		depth += open - strings.Count(line, "}")
		if open > 0 {
			opened = true
		}
		if opened && depth <= 0 {
			return i
		}
	}
	return len(lines) - 1
}

// deleteRanges removes ranges from lines, last to first so earlier indices
// stay valid.
func deleteRanges(lines []string, ranges []lineRange) []string {
	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		lines = slices.Delete(lines, r.start, r.end+1)
	}
	return lines
}
