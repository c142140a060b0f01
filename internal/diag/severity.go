package diag

import "fmt"

// Severity orders diagnostics; a Bag sorts higher severities first.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "info",
	SevWarning: "warning",
	SevError:   "error",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("severity(%d)", uint8(s))
}

// IsError reports whether a diagnostic of this severity fails the file.
func (s Severity) IsError() bool { return s >= SevError }
