package events

import "strings"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity: "" => medium.
func ParseSeverity(s string) (Severity, bool) {
	switch v := Severity(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return SeverityMedium, true
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return v, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

func ParseStatus(s string) (Status, bool) {
	switch v := Status(strings.ToLower(strings.TrimSpace(s))); v {
	case StatusOpen, StatusInProgress, StatusResolved:
		return v, true
	default:
		return "", false
	}
}

// IsOpen: cualquier estado no terminal.
func (s Status) IsOpen() bool {
	return s == StatusOpen || s == StatusInProgress
}

// CreatorRoleUnknown se usa cuando el creador no tiene (o ya no tiene) membresía.
const CreatorRoleUnknown = "unknown"
