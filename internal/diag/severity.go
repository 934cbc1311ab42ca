package diag

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics; higher is worse.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityLabels = [...]string{
	SevInfo:    "info",
	SevWarning: "warning",
	SevError:   "error",
}

// Label is the lowercase name used in short output and flag values.
func (s Severity) Label() string {
	if int(s) < len(severityLabels) {
		return severityLabels[s]
	}
	return "unknown"
}

func (s Severity) String() string {
	return strings.ToUpper(s.Label())
}

// ParseSeverity accepts a Label or "warn", ignoring case.
func ParseSeverity(s string) (Severity, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warn" {
		return SevWarning, nil
	}
	for sev, label := range severityLabels {
		if label == name {
			return Severity(sev), nil
		}
	}
	return SevInfo, fmt.Errorf("unknown severity %q (expected info|warning|error)", s)
}
