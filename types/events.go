package types

import (
	"time"

	"github.com/google/uuid"
)

// MaintenanceEventType names a change to a maintenance record.
type MaintenanceEventType string

const (
	EventMaintenanceCreated   MaintenanceEventType = "maintenance.created"
	EventMaintenanceUpdated   MaintenanceEventType = "maintenance.updated"
	EventMaintenanceCompleted MaintenanceEventType = "maintenance.completed"
	EventMaintenanceDeleted   MaintenanceEventType = "maintenance.deleted"
)

// MaintenanceEvent is published after a maintenance record is written.
type MaintenanceEvent struct {
	Type          MaintenanceEventType `json:"type"`
	MaintenanceID uuid.UUID            `json:"maintenance_id"`
	AssetID       uuid.UUID            `json:"asset_id"`
	UserID        uuid.UUID            `json:"user_id"`
	Record        *MaintenanceRecord   `json:"record,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Reminder tells an owner that a pending record is overdue or coming up.
type Reminder struct {
	UserID        uuid.UUID      `json:"user_id"`
	AssetID       uuid.UUID      `json:"asset_id"`
	AssetName     string         `json:"asset_name"`
	MaintenanceID uuid.UUID      `json:"maintenance_id"`
	Service       string         `json:"service"`
	ExpectedAt    *Date          `json:"expected_at"`
	Status        Classification `json:"status"`
	GeneratedAt   time.Time      `json:"generated_at"`
}
