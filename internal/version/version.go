package version

import "github.com/fatih/color"

// Version information for the relink CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Colored renders a plain "major.minor.patch[-suffix]" version with each
// part highlighted. Versions of another shape are returned unchanged.
func Colored(v string) string {
	core, suffix := v, ""
	for i := 0; i < len(v); i++ {
		if v[i] == '-' || v[i] == '+' {
			core, suffix = v[:i], v[i:]
			break
		}
	}
	var parts [3]string
	n := 0
	start := 0
	for i := 0; i <= len(core); i++ {
		if i == len(core) || core[i] == '.' {
			if n == len(parts) {
				return v
			}
			parts[n] = core[start:i]
			n++
			start = i + 1
		}
	}
	if n != len(parts) {
		return v
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + suffix
}
