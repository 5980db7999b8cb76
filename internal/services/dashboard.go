package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/assettrack/apiserver/internal/status"
	"github.com/assettrack/apiserver/types"
)

// dashboardFanOut bounds concurrent per-asset store reads.
const dashboardFanOut = 8

// AssetLister is the slice of the asset store the dashboard reads.
type AssetLister interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]types.Asset, error)
}

// MaintenanceLister is the slice of the maintenance store the dashboard reads.
type MaintenanceLister interface {
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]types.MaintenanceRecord, error)
}

// DashboardService aggregates the assets of one user that still have
// pending maintenance. It holds no state between calls.
type DashboardService struct {
	assets      AssetLister
	maintenance MaintenanceLister
	now         func() time.Time
	logger      *slog.Logger
}

func NewDashboardService(assets AssetLister, maintenance MaintenanceLister, now func() time.Time, logger *slog.Logger) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		assets:      assets,
		maintenance: maintenance,
		now:         now,
		logger:      logger,
	}
}

// Build returns the user's dashboard ordered by mode.
func (s *DashboardService) Build(ctx context.Context, userID uuid.UUID, mode types.DashboardSort) ([]types.AssetWithMaintenances, error) {
	items, err := s.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortDashboard(items, mode)
	return items, nil
}

// Aggregate lists the user's assets, fetches each asset's records
// concurrently and keeps only assets with at least one record not done.
// Any store failure aborts the whole aggregation. The result keeps the
// store's asset order.
func (s *DashboardService) Aggregate(ctx context.Context, userID uuid.UUID) ([]types.AssetWithMaintenances, error) {
	assets, err := s.assets.ListByOwner(ctx, userID)
	if err != nil {
		s.logger.Error("dashboard: failed to list assets", "user_id", userID, "error", err)
		return nil, storeFailure("list assets", err)
	}

	now := s.now()
	slots := make([]*types.AssetWithMaintenances, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardFanOut)
	for i, asset := range assets {
		g.Go(func() error {
			records, err := s.maintenance.ListByAsset(gctx, asset.ID)
			if err != nil {
				return storeFailure("list maintenance", err)
			}
			slots[i] = summarizeAsset(asset, records, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard: failed to load maintenance", "user_id", userID, "error", err)
		return nil, err
	}

	items := make([]types.AssetWithMaintenances, 0, len(assets))
	for _, slot := range slots {
		if slot != nil {
			items = append(items, *slot)
		}
	}
	return items, nil
}

// summarizeAsset returns nil when the asset has no pending record.
func summarizeAsset(asset types.Asset, records []types.MaintenanceRecord, now time.Time) *types.AssetWithMaintenances {
	hasPending := false
	var mostRelevant *types.Date
	for _, record := range records {
		if record.IsDone() {
			continue
		}
		hasPending = true
		if record.ExpectedAt == nil || record.ExpectedAt.IsZero() {
			continue
		}
		if mostRelevant == nil || record.ExpectedAt.Before(*mostRelevant) {
			d := *record.ExpectedAt
			mostRelevant = &d
		}
	}
	if !hasPending {
		return nil
	}
	return &types.AssetWithMaintenances{
		Asset:                       asset,
		Maintenances:                status.Views(records, now),
		MostRelevantMaintenanceDate: mostRelevant,
		HasPendingMaintenance:       true,
	}
}

// SortDashboard orders items in place. The sort is stable, so ties keep
// their aggregation order. In urgency mode entries without a relevant date
// go last.
func SortDashboard(items []types.AssetWithMaintenances, mode types.DashboardSort) {
	switch mode {
	case types.SortNameAsc, types.SortNameDesc:
		collator := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(items, func(i, j int) bool {
			cmp := collator.CompareString(items[i].Name, items[j].Name)
			if mode == types.SortNameDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].MostRelevantMaintenanceDate, items[j].MostRelevantMaintenanceDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	}
}
