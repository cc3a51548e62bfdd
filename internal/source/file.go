package source

import (
	"os"
	"strings"
)

// Load reads a file from disk, normalizes CRLF/BOM and splits it into lines.
func Load(path string) (*File, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fromBytes(path, content), nil
}

func fromBytes(path string, content []byte) *File {
	var flags FileFlags
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return &File{
		Path:  normalizePath(path),
		Lines: splitLines(string(content)),
		Flags: flags,
	}
}

// splitLines splits on '\n'. A trailing newline does not produce an extra empty line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
