// Package version holds build metadata for the rsbundle binary. The
// variables are set with -ldflags "-X rsbundle/internal/version.Version=...".
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"
	// GitCommit is the commit the binary was built from, if known.
	GitCommit = ""
	// BuildDate is the ISO-8601 build timestamp, if known.
	BuildDate = ""
)

var partColors = [...]*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colored renders v with its major, minor and patch numbers colored.
// A pre-release suffix such as "-dev" is left plain.
func Colored(v string) string {
	core, suffix, hasSuffix := strings.Cut(v, "-")
	parts := strings.SplitN(core, ".", len(partColors))
	for i, p := range parts {
		parts[i] = partColors[i].Sprint(p)
	}
	out := strings.Join(parts, ".")
	if hasSuffix {
		out += "-" + suffix
	}
	return out
}
