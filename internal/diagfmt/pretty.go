package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"relink/internal/diag"
)

type palette struct {
	err, warn, info, code, subject, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:     mk(color.FgRed, color.Bold),
		warn:    mk(color.FgYellow, color.Bold),
		info:    mk(color.FgCyan),
		code:    mk(color.Faint),
		subject: mk(color.Bold),
		note:    mk(color.FgBlue),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes bag.Items() in order, so callers sort the bag first.
// Each diagnostic is printed as
//
//	<module>: <SEV> <CODE> <subject>: <Message>
//
// followed by its notes, indented, when opts.ShowNotes is set.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	for _, d := range items {
		if d.Module != "" {
			if _, err := fmt.Fprintf(w, "%s: ", d.Module); err != nil {
				return err
			}
		}
		line := fmt.Sprintf("%s %s", p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code.ID()))
		if d.Subject != "" {
			line += " " + p.subject.Sprint(d.Subject) + ":"
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", line, d.Message); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			text := n.Msg
			if n.Subject != "" {
				text = n.Subject + ": " + n.Msg
			}
			if _, err := fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), text); err != nil {
				return err
			}
		}
	}
	if opts.Summary {
		return summary(w, p, bag, len(items))
	}
	return nil
}

func summary(w io.Writer, p palette, bag *diag.Bag, shown int) error {
	var errs, warns int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	line := fmt.Sprintf("%s, %s", plural(errs, "error"), plural(warns, "warning"))
	if hidden := bag.Len() - shown; hidden > 0 {
		line += fmt.Sprintf(" (%d not shown)", hidden)
	}
	c := p.info
	switch {
	case errs > 0:
		c = p.err
	case warns > 0:
		c = p.warn
	}
	_, err := fmt.Fprintln(w, c.Sprint(line))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
