package diag

import (
	"strings"
)

// FormatShort renders diagnostics one per line as
// "SEV CODE module: subject: message", followed by indented notes when
// includeNotes is set. Multi-line messages keep only their first line.
func FormatShort(items []Diagnostic, includeNotes bool) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range items {
		sb.WriteString(d.Severity.String())
		sb.WriteByte(' ')
		sb.WriteString(d.Code.ID())
		sb.WriteByte(' ')
		if d.Module != "" {
			sb.WriteString(d.Module)
			sb.WriteString(": ")
		}
		if d.Subject != "" {
			sb.WriteString(d.Subject)
			sb.WriteString(": ")
		}
		sb.WriteString(firstLine(d.Message))
		sb.WriteByte('\n')
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			sb.WriteString("  note: ")
			if n.Subject != "" {
				sb.WriteString(n.Subject)
				sb.WriteString(": ")
			}
			sb.WriteString(firstLine(n.Msg))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
