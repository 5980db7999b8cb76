// Package status derives the display status and urgency of maintenance
// records. Everything here is a pure function of its inputs.
package status

import (
	"fmt"
	"math"
	"time"

	"github.com/assettrack/apiserver/types"
)

// UpcomingWindowDays is the largest whole-day distance still reported as
// upcoming rather than scheduled.
const UpcomingWindowDays = 7

const day = 24 * time.Hour

// Classify derives the status of a record expected at expectedAt (nil when
// the record has no date) with the given done flag, as seen at now.
//
// Done wins over every date rule. Overdue compares full instants, while the
// upcoming window compares calendar dates at midnight in now's location.
func Classify(expectedAt *time.Time, done bool, now time.Time) types.Classification {
	if done {
		return types.Classification{
			Status:   types.StatusCompleted,
			Urgency:  types.UrgencyNone,
			Severity: types.SeveritySuccess,
			Label:    "Completed",
		}
	}

	if expectedAt == nil || expectedAt.IsZero() {
		return types.Classification{
			Status:   types.StatusInvalid,
			Urgency:  types.UrgencyNone,
			Severity: types.SeverityDisabled,
			Label:    "Invalid date",
		}
	}

	if expectedAt.Before(now) {
		return types.Classification{
			Status:   types.StatusOverdue,
			Urgency:  types.UrgencyHigh,
			Severity: types.SeverityError,
			Label:    "Overdue",
		}
	}

	diffDays := DaysUntil(*expectedAt, now)
	if diffDays <= UpcomingWindowDays {
		return types.Classification{
			Status:    types.StatusUpcoming,
			Urgency:   types.UrgencyMedium,
			Severity:  types.SeverityWarning,
			Label:     fmt.Sprintf("Upcoming (%dd)", diffDays),
			DaysUntil: diffDays,
		}
	}

	return types.Classification{
		Status:   types.StatusScheduled,
		Urgency:  types.UrgencyLow,
		Severity: types.SeverityInfo,
		Label:    "Scheduled",
	}
}

// DaysUntil is the ceiling of the difference between the calendar days of
// expectedAt and now, both truncated to midnight in now's location.
func DaysUntil(expectedAt, now time.Time) int {
	loc := now.Location()
	expectedDay := midnight(expectedAt.In(loc))
	today := midnight(now)
	diff := expectedDay.Sub(today)
	return int(math.Ceil(float64(diff) / float64(day)))
}

// ClassifyRecord classifies a stored record. Its calendar date is anchored
// at midnight in now's location.
func ClassifyRecord(record types.MaintenanceRecord, now time.Time) types.Classification {
	var expectedAt *time.Time
	if record.ExpectedAt != nil && !record.ExpectedAt.IsZero() {
		t := record.ExpectedAt.In(now.Location())
		expectedAt = &t
	}
	return Classify(expectedAt, record.IsDone(), now)
}

// View pairs a record with its classification at now.
func View(record types.MaintenanceRecord, now time.Time) types.MaintenanceView {
	return types.MaintenanceView{
		MaintenanceRecord: record,
		Status:            ClassifyRecord(record, now),
	}
}

// Views classifies every record, keeping order.
func Views(records []types.MaintenanceRecord, now time.Time) []types.MaintenanceView {
	views := make([]types.MaintenanceView, 0, len(records))
	for _, record := range records {
		views = append(views, View(record, now))
	}
	return views
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
