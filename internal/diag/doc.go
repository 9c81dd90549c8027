// Package diag defines the diagnostic model shared by every relink pass.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code: compact numeric identifier (see codes.go) with stable string
//     form such as RES5001.
//   - Module: the module being patched when the finding was made.
//   - Subject: the member, assembly reference or literal concerned.
//   - Message: human oriented text; keep it short.
//   - Notes: optional extra lines, e.g. candidate signatures considered by
//     the method resolver.
//
// # Emitting diagnostics
//
// Passes use a diag.Reporter so emission is decoupled from storage. For
// diagnostics with notes, build one with NewReportBuilder (or the helpers
// ReportError/ReportWarning/ReportInfo), chain WithNote and call Emit.
//
// Per-reference resolution problems are always reported, never returned as
// errors: one unmapped member must not stop the rest of a module from being
// patched. Only missing mandatory inputs abort a run, and those travel as
// ordinary Go errors.
//
// Rendering lives in internal/diagfmt; FormatShort is the plain one-line
// format used by tests and quiet output.
package diag
