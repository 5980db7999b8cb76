package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/assettrack/apiserver/internal/status"
	"github.com/assettrack/apiserver/internal/store"
	"github.com/assettrack/apiserver/types"
)

// MaintenanceRepository defines persistence operations for maintenance
// records.
type MaintenanceRepository interface {
	Create(ctx context.Context, record types.MaintenanceRecord) (types.MaintenanceRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (types.MaintenanceRecord, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]types.MaintenanceRecord, error)
	ListPending(ctx context.Context) ([]types.PendingMaintenance, error)
	Update(ctx context.Context, id uuid.UUID, patch types.MaintenanceChanges) (types.MaintenanceRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MaintenanceService encapsulates maintenance record use-cases. A record
// has no owner of its own, so every operation authorizes against the asset
// it belongs to.
type MaintenanceService struct {
	repo   MaintenanceRepository
	guard  *OwnershipGuard
	events *EventPublisher
	now    func() time.Time
	logger *slog.Logger
}

func NewMaintenanceService(
	repo MaintenanceRepository,
	assets AssetGetter,
	events *EventPublisher,
	now func() time.Time,
	logger *slog.Logger,
) *MaintenanceService {
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		repo:   repo,
		guard:  NewOwnershipGuard(assets),
		events: events,
		now:    now,
		logger: logger,
	}
}

func (s *MaintenanceService) Create(ctx context.Context, requesterID, assetID uuid.UUID, input types.MaintenanceInput) (types.MaintenanceView, error) {
	record, err := normalizeMaintenanceInput(input)
	if err != nil {
		return types.MaintenanceView{}, err
	}
	if _, err := s.guard.AuthorizeMaintenance(ctx, requesterID, assetID); err != nil {
		return types.MaintenanceView{}, err
	}

	record.AssetID = assetID
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		s.logger.Error("failed to create maintenance record", "asset_id", assetID, "error", err)
		return types.MaintenanceView{}, storeFailure("create maintenance", err)
	}

	s.events.MaintenanceChanged(ctx, types.EventMaintenanceCreated, requesterID, created)
	return status.View(created, s.now()), nil
}

// ListForAsset returns the asset's records newest first, each classified.
func (s *MaintenanceService) ListForAsset(ctx context.Context, requesterID, assetID uuid.UUID) ([]types.MaintenanceView, error) {
	if _, err := s.guard.AuthorizeMaintenance(ctx, requesterID, assetID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByAsset(ctx, assetID)
	if err != nil {
		s.logger.Error("failed to list maintenance records", "asset_id", assetID, "error", err)
		return nil, storeFailure("list maintenance", err)
	}
	return status.Views(records, s.now()), nil
}

func (s *MaintenanceService) Get(ctx context.Context, requesterID, id uuid.UUID) (types.MaintenanceView, error) {
	record, err := s.authorizedRecord(ctx, requesterID, id)
	if err != nil {
		return types.MaintenanceView{}, err
	}
	return status.View(record, s.now()), nil
}

// Update applies patch. The record's asset cannot be changed.
func (s *MaintenanceService) Update(ctx context.Context, requesterID, id uuid.UUID, patch types.MaintenancePatch) (types.MaintenanceView, error) {
	changes, err := normalizeMaintenancePatch(patch)
	if err != nil {
		return types.MaintenanceView{}, err
	}
	current, err := s.authorizedRecord(ctx, requesterID, id)
	if err != nil {
		return types.MaintenanceView{}, err
	}
	if changes.Empty() {
		return status.View(current, s.now()), nil
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.MaintenanceView{}, &NotFoundError{Entity: "maintenance record"}
		}
		s.logger.Error("failed to update maintenance record", "maintenance_id", id, "error", err)
		return types.MaintenanceView{}, storeFailure("update maintenance", err)
	}

	eventType := types.EventMaintenanceUpdated
	if !current.IsDone() && updated.IsDone() {
		eventType = types.EventMaintenanceCompleted
	}
	s.events.MaintenanceChanged(ctx, eventType, requesterID, updated)
	return status.View(updated, s.now()), nil
}

func (s *MaintenanceService) Delete(ctx context.Context, requesterID, id uuid.UUID) error {
	record, err := s.authorizedRecord(ctx, requesterID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Entity: "maintenance record"}
		}
		s.logger.Error("failed to delete maintenance record", "maintenance_id", id, "error", err)
		return storeFailure("delete maintenance", err)
	}
	s.events.MaintenanceChanged(ctx, types.EventMaintenanceDeleted, requesterID, record)
	return nil
}

// authorizedRecord loads the record and checks ownership of its asset.
func (s *MaintenanceService) authorizedRecord(ctx context.Context, requesterID, id uuid.UUID) (types.MaintenanceRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.MaintenanceRecord{}, &NotFoundError{Entity: "maintenance record"}
		}
		return types.MaintenanceRecord{}, storeFailure("load maintenance", err)
	}
	if _, err := s.guard.AuthorizeMaintenance(ctx, requesterID, record.AssetID); err != nil {
		return types.MaintenanceRecord{}, err
	}
	return record, nil
}

func normalizeMaintenanceInput(input types.MaintenanceInput) (types.MaintenanceRecord, error) {
	service, err := requiredText("service", "service", input.Service, maxShortText)
	if err != nil {
		return types.MaintenanceRecord{}, err
	}
	expectedAt, err := optionalDate("expected_at", "expected date", input.ExpectedAt)
	if err != nil {
		return types.MaintenanceRecord{}, err
	}
	performedAt, err := optionalDate("performed_at", "performed date", input.PerformedAt)
	if err != nil {
		return types.MaintenanceRecord{}, err
	}
	description, err := optionalText("description", "description", input.Description, 0)
	if err != nil {
		return types.MaintenanceRecord{}, err
	}
	condition, err := optionalText("condition_next_maintenance", "condition for next maintenance", input.ConditionNextMaintenance, maxShortText)
	if err != nil {
		return types.MaintenanceRecord{}, err
	}
	nextDate, err := optionalDate("date_next_maintenance", "next maintenance date", input.DateNextMaintenance)
	if err != nil {
		return types.MaintenanceRecord{}, err
	}
	return types.MaintenanceRecord{
		Service:                  service,
		ExpectedAt:               expectedAt,
		PerformedAt:              performedAt,
		Description:              description,
		Done:                     input.Done,
		ConditionNextMaintenance: condition,
		DateNextMaintenance:      nextDate,
	}, nil
}

func normalizeMaintenancePatch(patch types.MaintenancePatch) (types.MaintenanceChanges, error) {
	changes := types.MaintenanceChanges{
		Service:                  patch.Service,
		Description:              patch.Description,
		Done:                     patch.Done,
		ConditionNextMaintenance: patch.ConditionNextMaintenance,
	}
	if patch.Service.Set {
		if patch.Service.Null {
			return changes, invalid("service", "service cannot be null")
		}
		service, err := requiredText("service", "service", patch.Service.Value, maxShortText)
		if err != nil {
			return changes, err
		}
		changes.Service = types.Some(service)
	}
	var err error
	if changes.ExpectedAt, err = patchDate("expected_at", "expected date", patch.ExpectedAt); err != nil {
		return changes, err
	}
	if changes.PerformedAt, err = patchDate("performed_at", "performed date", patch.PerformedAt); err != nil {
		return changes, err
	}
	if changes.DateNextMaintenance, err = patchDate("date_next_maintenance", "next maintenance date", patch.DateNextMaintenance); err != nil {
		return changes, err
	}
	if patch.Description.Set && !patch.Description.Null {
		description, _ := optionalText("description", "description", &patch.Description.Value, 0)
		changes.Description = types.Some(*description)
	}
	if patch.ConditionNextMaintenance.Set && !patch.ConditionNextMaintenance.Null {
		condition, err := optionalText("condition_next_maintenance", "condition for next maintenance", &patch.ConditionNextMaintenance.Value, maxShortText)
		if err != nil {
			return changes, err
		}
		changes.ConditionNextMaintenance = types.Some(*condition)
	}
	return changes, nil
}
