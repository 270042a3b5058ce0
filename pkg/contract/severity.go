package contract

import "strings"

// Severity indicates how a failed rule affects the overall validation result.
// Only error-severity failures flip a report to failed; warnings are recorded
// but never change the pass/fail signal.
type Severity string

// Severity levels for rules and findings.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Valid reports whether s is a recognized severity.
func (s Severity) Valid() bool {
	return s == SeverityError || s == SeverityWarning
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityError and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, true
	case "warning", "warn":
		return SeverityWarning, true
	default:
		return SeverityError, false
	}
}
