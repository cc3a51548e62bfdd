package bundler

import (
	"bufio"
	"io"
	"strings"
)

// Buffer accumulates output lines. Each line is prefixed with one tab per
// nesting level at write time.
type Buffer struct {
	lines []string
}

// Write appends line at the given nesting depth.
func (b *Buffer) Write(line string, depth int) {
	if depth > 0 {
		line = strings.Repeat("\t", depth) + line
	}
	b.lines = append(b.lines, line)
}

// Lines returns the buffered lines. The slice is owned by the buffer.
func (b *Buffer) Lines() []string {
	return b.lines
}

// Replace swaps the buffered lines for lines.
func (b *Buffer) Replace(lines []string) {
	b.lines = lines
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Flush writes every buffered line followed by a newline and clears the buffer.
func (b *Buffer) Flush(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range b.lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	b.lines = b.lines[:0]
	return nil
}
