package types

import "fmt"

// MaintenanceStatus is the human-facing state of a maintenance record.
type MaintenanceStatus string

const (
	StatusCompleted MaintenanceStatus = "completed"
	StatusInvalid   MaintenanceStatus = "invalid"
	StatusOverdue   MaintenanceStatus = "overdue"
	StatusUpcoming  MaintenanceStatus = "upcoming"
	StatusScheduled MaintenanceStatus = "scheduled"
)

// Urgency orders statuses for sorting and alerting. Higher is more urgent.
type Urgency int

const (
	UrgencyNone Urgency = iota
	UrgencyLow
	UrgencyMedium
	UrgencyHigh
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	default:
		return "none"
	}
}

func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Urgency) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*u = UrgencyNone
	case "low":
		*u = UrgencyLow
	case "medium":
		*u = UrgencyMedium
	case "high":
		*u = UrgencyHigh
	default:
		return fmt.Errorf("unknown urgency %q", text)
	}
	return nil
}

// Severity is the visual tag clients use to color a status.
type Severity string

const (
	SeveritySuccess  Severity = "success"
	SeverityDisabled Severity = "disabled"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Classification is the derived status of a maintenance record at a given
// instant. DaysUntil is only meaningful for StatusUpcoming.
type Classification struct {
	Status    MaintenanceStatus `json:"status"`
	Urgency   Urgency           `json:"urgency"`
	Severity  Severity          `json:"severity"`
	Label     string            `json:"label"`
	DaysUntil int               `json:"days_until,omitempty"`
}

// Urgent reports whether the record needs attention soon.
func (c Classification) Urgent() bool {
	return c.Urgency >= UrgencyMedium
}
