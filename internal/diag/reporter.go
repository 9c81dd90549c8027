package diag

// Reporter is the minimal contract for receiving diagnostics from a pass.
// Implementations: BagReporter (stores into a Bag), NopReporter,
// MultiReporter (fan-out) and DedupReporter.
type Reporter interface {
	Report(code Code, sev Severity, subject, msg string, notes []Note)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, code Code, subject, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag:     New(sev, code, subject, msg),
	}
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, subject, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, subject, msg)
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, subject, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, subject, msg)
}

// ReportInfo is a shortcut for SevInfo diagnostics.
func ReportInfo(r Reporter, code Code, subject, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevInfo, code, subject, msg)
}

// WithNote appends a note to diagnostic.
func (b *ReportBuilder) WithNote(subject, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithNote(subject, msg)
	return b
}

// Emit sends diagnostic to underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag.Code, b.diag.Severity, b.diag.Subject, b.diag.Message, b.diag.Notes)
	}
	b.emitted = true
}

// Diagnostic returns accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter writes into a *Bag, stamping every entry with Module.
type BagReporter struct {
	Bag    *Bag
	Module string
}

func (r BagReporter) Report(code Code, sev Severity, subject, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev, Code: code, Module: r.Module,
		Subject: subject, Message: msg, Notes: notes,
	})
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Code, Severity, string, string, []Note) {}

// MultiReporter fans a diagnostic out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) Report(code Code, sev Severity, subject, msg string, notes []Note) {
	for _, r := range m {
		if r != nil {
			r.Report(code, sev, subject, msg, notes)
		}
	}
}

// FuncReporter adapts a function to Reporter.
type FuncReporter func(d Diagnostic)

func (f FuncReporter) Report(code Code, sev Severity, subject, msg string, notes []Note) {
	if f != nil {
		f(Diagnostic{Severity: sev, Code: code, Subject: subject, Message: msg, Notes: notes})
	}
}
