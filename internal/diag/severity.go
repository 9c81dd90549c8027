package diag

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics. Assembly reference rewrites and timings are
// informational, references and literals that could not be mapped are
// warnings, and errors stop the module they belong to.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// ParseSeverity reads info, warning (or warn) and error, ignoring case.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SevInfo, nil
	case "warning", "warn":
		return SevWarning, nil
	case "error":
		return SevError, nil
	}
	return SevInfo, fmt.Errorf("invalid severity %q (expected info|warning|error)", s)
}

// AtLeast returns a new bag with the diagnostics of b whose severity is min
// or higher, in the same order.
func (b *Bag) AtLeast(min Severity) *Bag {
	out := NewBag(b.Cap())
	for _, d := range b.Items() {
		if d.Severity >= min {
			out.Add(d)
		}
	}
	return out
}
