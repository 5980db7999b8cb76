package types

import (
	"time"

	"github.com/google/uuid"
)

// MaintenanceRecord is a scheduled or performed service event tied to one
// asset. AssetID never changes; ownership is resolved through the asset.
type MaintenanceRecord struct {
	ID                       uuid.UUID `json:"id" db:"id"`
	AssetID                  uuid.UUID `json:"asset_id" db:"asset_id"`
	Service                  string    `json:"service" db:"service"`
	ExpectedAt               *Date     `json:"expected_at" db:"expected_at"`
	PerformedAt              *Date     `json:"performed_at" db:"performed_at"`
	Description              *string   `json:"description" db:"description"`
	Done                     *bool     `json:"done" db:"done"`
	ConditionNextMaintenance *string   `json:"condition_next_maintenance" db:"condition_next_maintenance"`
	DateNextMaintenance      *Date     `json:"date_next_maintenance" db:"date_next_maintenance"`
	CreatedAt                time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time `json:"updated_at" db:"updated_at"`
}

// IsDone treats a null done flag as not done.
func (m MaintenanceRecord) IsDone() bool {
	return m.Done != nil && *m.Done
}

// MaintenanceInput is the payload for creating a maintenance record. The
// asset comes from the route, never from the body. Dates arrive as raw
// strings so a bad one can be reported against its own field.
type MaintenanceInput struct {
	Service                  string  `json:"service"`
	ExpectedAt               *string `json:"expected_at"`
	PerformedAt              *string `json:"performed_at"`
	Description              *string `json:"description"`
	Done                     *bool   `json:"done"`
	ConditionNextMaintenance *string `json:"condition_next_maintenance"`
	DateNextMaintenance      *string `json:"date_next_maintenance"`
}

// MaintenancePatch is a partial update of a maintenance record as sent by
// clients.
type MaintenancePatch struct {
	Service                  Optional[string] `json:"service"`
	ExpectedAt               Optional[string] `json:"expected_at"`
	PerformedAt              Optional[string] `json:"performed_at"`
	Description              Optional[string] `json:"description"`
	Done                     Optional[bool]   `json:"done"`
	ConditionNextMaintenance Optional[string] `json:"condition_next_maintenance"`
	DateNextMaintenance      Optional[string] `json:"date_next_maintenance"`
}

func (p MaintenancePatch) Empty() bool {
	return !p.Service.Set && !p.ExpectedAt.Set && !p.PerformedAt.Set &&
		!p.Description.Set && !p.Done.Set &&
		!p.ConditionNextMaintenance.Set && !p.DateNextMaintenance.Set
}

// MaintenanceChanges is a validated MaintenancePatch with parsed dates,
// ready to be written.
type MaintenanceChanges struct {
	Service                  Optional[string]
	ExpectedAt               Optional[Date]
	PerformedAt              Optional[Date]
	Description              Optional[string]
	Done                     Optional[bool]
	ConditionNextMaintenance Optional[string]
	DateNextMaintenance      Optional[Date]
}

func (c MaintenanceChanges) Empty() bool {
	return !c.Service.Set && !c.ExpectedAt.Set && !c.PerformedAt.Set &&
		!c.Description.Set && !c.Done.Set &&
		!c.ConditionNextMaintenance.Set && !c.DateNextMaintenance.Set
}

// MaintenanceView is a record as served to clients, with its derived status.
type MaintenanceView struct {
	MaintenanceRecord
	Status Classification `json:"status"`
}

// PendingMaintenance is a not-done record joined with its owning asset.
type PendingMaintenance struct {
	Record    MaintenanceRecord
	AssetName string
	OwnerID   uuid.UUID
}
