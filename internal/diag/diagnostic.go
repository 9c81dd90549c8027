package diag

// Note adds context to a diagnostic, optionally about another subject.
type Note struct {
	Subject string
	Msg     string
}

// Diagnostic is one finding of a relink run. Subject names the module,
// member or literal the finding is about.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Module   string
	Subject  string
	Message  string
	Notes    []Note
}

// New constructs a diagnostic without notes.
func New(sev Severity, code Code, subject, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Subject:  subject,
		Message:  msg,
	}
}

// WithNote returns a copy of d with an extra note.
func (d Diagnostic) WithNote(subject, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Subject: subject, Msg: msg})
	return d
}
