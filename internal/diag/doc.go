// Package diag defines the diagnostic model shared by every compiler phase.
//
// Diagnostic is the central record: a Severity, a numeric Code with a stable
// string form, a short Message, the Primary span and optional Notes.
// Notes should add new context ("previous declaration here") rather than
// repeat the message.
//
// Phases emit through a Reporter so emission stays decoupled from storage.
// ReportBuilder (via ReportError) chains WithNote before Emit;
// BagReporter collects into a Bag, which supports sorting and deduplication.
// DedupReporter suppresses repeats when the same failure is reached through
// several call sites.
//
// The package performs no formatting; rendering lives in internal/diagfmt.
package diag
