package types

import (
	"fmt"
	"time"
)

// DashboardSort selects the ordering of the dashboard.
type DashboardSort string

const (
	SortUrgency  DashboardSort = "urgency"
	SortNameAsc  DashboardSort = "name_asc"
	SortNameDesc DashboardSort = "name_desc"
)

// ParseDashboardSort maps a query value to a sort mode; empty means urgency.
func ParseDashboardSort(raw string) (DashboardSort, error) {
	switch DashboardSort(raw) {
	case "":
		return SortUrgency, nil
	case SortUrgency, SortNameAsc, SortNameDesc:
		return DashboardSort(raw), nil
	default:
		return "", fmt.Errorf("invalid sort %q", raw)
	}
}

// AssetWithMaintenances is one dashboard entry: an asset with at least one
// pending record, all of its records, and the earliest pending expected date.
type AssetWithMaintenances struct {
	Asset
	Maintenances                []MaintenanceView `json:"maintenances"`
	MostRelevantMaintenanceDate *Date             `json:"mostRelevantMaintenanceDate"`
	HasPendingMaintenance       bool              `json:"hasUrgentOrUpcomingMaintenance"`
}

// AssetHistory is the full maintenance history of one asset.
type AssetHistory struct {
	Asset        Asset             `json:"asset"`
	Maintenances []MaintenanceView `json:"maintenances"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// HistoryExport points at a stored history document.
type HistoryExport struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
