package diagfmt

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
	// Max limits the number of printed diagnostics, 0 means all.
	Max int
	// Summary appends a line counting errors and warnings.
	Summary bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	Max          int // trims the output, the bag is untouched
	IncludeNotes bool
}
