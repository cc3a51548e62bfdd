package source

// FileFlags encodes metadata about a source file.
type FileFlags uint8

const (
	// FileHadBOM is set when a UTF-8 byte order mark was stripped.
	FileHadBOM FileFlags = 1 << iota
	// FileNormalizedCRLF is set when CRLF line endings were rewritten to LF.
	FileNormalizedCRLF
)

// File is a source file split into lines. It is immutable once read.
type File struct {
	Path  string
	Lines []string
	Flags FileFlags
}

// Len returns the number of lines in the file.
func (f *File) Len() int {
	return len(f.Lines)
}
