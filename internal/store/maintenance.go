package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/assettrack/apiserver/types"
)

// MaintenanceRepository handles persistence for maintenance records.
type MaintenanceRepository struct {
	db *sql.DB
}

func NewMaintenanceRepository(db *sql.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

const maintenanceColumns = `id, asset_id, service, expected_at, performed_at, description, done,
	condition_next_maintenance, date_next_maintenance, created_at, updated_at`

func (r *MaintenanceRepository) Create(ctx context.Context, record types.MaintenanceRecord) (types.MaintenanceRecord, error) {
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	const query = `
		INSERT INTO maintenance_records (
			asset_id, service, expected_at, performed_at, description, done,
			condition_next_maintenance, date_next_maintenance, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		record.AssetID,
		record.Service,
		record.ExpectedAt,
		record.PerformedAt,
		record.Description,
		record.Done,
		record.ConditionNextMaintenance,
		record.DateNextMaintenance,
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&record.ID); err != nil {
		return types.MaintenanceRecord{}, translateWriteError(err)
	}
	return record, nil
}

func (r *MaintenanceRepository) GetByID(ctx context.Context, id uuid.UUID) (types.MaintenanceRecord, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE id = $1`
	return scanMaintenance(r.db.QueryRowContext(ctx, query, id))
}

// ListByAsset returns the asset's records, newest first.
func (r *MaintenanceRepository) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]types.MaintenanceRecord, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_records WHERE asset_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]types.MaintenanceRecord, 0)
	for rows.Next() {
		record, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListPending returns every record not marked done, joined with the name and
// owner of its asset, earliest expected date first.
func (r *MaintenanceRepository) ListPending(ctx context.Context) ([]types.PendingMaintenance, error) {
	const query = `
		SELECT m.id, m.asset_id, m.service, m.expected_at, m.performed_at, m.description, m.done,
		       m.condition_next_maintenance, m.date_next_maintenance, m.created_at, m.updated_at,
		       a.name, a.user_id
		FROM maintenance_records m
		JOIN assets a ON a.id = m.asset_id
		WHERE m.done IS NOT TRUE
		ORDER BY m.expected_at ASC NULLS LAST, m.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pending := make([]types.PendingMaintenance, 0)
	for rows.Next() {
		var item types.PendingMaintenance
		rec := &item.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.AssetID,
			&rec.Service,
			&rec.ExpectedAt,
			&rec.PerformedAt,
			&rec.Description,
			&rec.Done,
			&rec.ConditionNextMaintenance,
			&rec.DateNextMaintenance,
			&rec.CreatedAt,
			&rec.UpdatedAt,
			&item.AssetName,
			&item.OwnerID,
		); err != nil {
			return nil, err
		}
		pending = append(pending, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pending, nil
}

// Update applies the set fields of patch. The asset is never written.
func (r *MaintenanceRepository) Update(ctx context.Context, id uuid.UUID, patch types.MaintenanceChanges) (types.MaintenanceRecord, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	var set updateSet
	if patch.Service.Set {
		set.add("service", patch.Service.Value)
	}
	if patch.ExpectedAt.Set {
		set.add("expected_at", patch.ExpectedAt.Ptr())
	}
	if patch.PerformedAt.Set {
		set.add("performed_at", patch.PerformedAt.Ptr())
	}
	if patch.Description.Set {
		set.add("description", patch.Description.Ptr())
	}
	if patch.Done.Set {
		set.add("done", patch.Done.Ptr())
	}
	if patch.ConditionNextMaintenance.Set {
		set.add("condition_next_maintenance", patch.ConditionNextMaintenance.Ptr())
	}
	if patch.DateNextMaintenance.Set {
		set.add("date_next_maintenance", patch.DateNextMaintenance.Ptr())
	}
	set.add("updated_at", time.Now())

	query := fmt.Sprintf(
		`UPDATE maintenance_records SET %s WHERE id = $%d RETURNING %s`,
		set.clause(), len(set.args)+1, maintenanceColumns,
	)
	args := append(set.args, id)
	record, err := scanMaintenance(r.db.QueryRowContext(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return types.MaintenanceRecord{}, translateWriteError(err)
	}
	return record, err
}

func (r *MaintenanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM maintenance_records WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMaintenance(row rowScanner) (types.MaintenanceRecord, error) {
	var record types.MaintenanceRecord
	err := row.Scan(
		&record.ID,
		&record.AssetID,
		&record.Service,
		&record.ExpectedAt,
		&record.PerformedAt,
		&record.Description,
		&record.Done,
		&record.ConditionNextMaintenance,
		&record.DateNextMaintenance,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.MaintenanceRecord{}, ErrNotFound
		}
		return types.MaintenanceRecord{}, err
	}
	return record, nil
}
