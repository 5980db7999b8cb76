package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/assettrack/apiserver/types"
)

// AssetRepository handles persistence for assets.
type AssetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `id, user_id, name, description, created_at, updated_at`

func (r *AssetRepository) Create(ctx context.Context, asset types.Asset) (types.Asset, error) {
	now := time.Now()
	asset.CreatedAt = now
	asset.UpdatedAt = now

	const query = `
		INSERT INTO assets (user_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		asset.UserID,
		asset.Name,
		asset.Description,
		asset.CreatedAt,
		asset.UpdatedAt,
	).Scan(&asset.ID); err != nil {
		return types.Asset{}, translateWriteError(err)
	}
	return asset, nil
}

func (r *AssetRepository) GetByID(ctx context.Context, id uuid.UUID) (types.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	return scanAsset(r.db.QueryRowContext(ctx, query, id))
}

// ListByOwner returns the owner's assets, newest first.
func (r *AssetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]types.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]types.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

// Update applies the set fields of patch. The owner is never written.
func (r *AssetRepository) Update(ctx context.Context, id uuid.UUID, patch types.AssetPatch) (types.Asset, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	var set updateSet
	if patch.Name.Set {
		set.add("name", patch.Name.Value)
	}
	if patch.Description.Set {
		set.add("description", patch.Description.Ptr())
	}
	set.add("updated_at", time.Now())

	query := fmt.Sprintf(
		`UPDATE assets SET %s WHERE id = $%d RETURNING %s`,
		set.clause(), len(set.args)+1, assetColumns,
	)
	args := append(set.args, id)
	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return types.Asset{}, translateWriteError(err)
	}
	return asset, err
}

func (r *AssetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM assets WHERE id = $1`
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

func scanAsset(row rowScanner) (types.Asset, error) {
	var asset types.Asset
	err := row.Scan(
		&asset.ID,
		&asset.UserID,
		&asset.Name,
		&asset.Description,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Asset{}, ErrNotFound
		}
		return types.Asset{}, err
	}
	return asset, nil
}

// updateSet accumulates "column = $n" assignments for partial updates.
type updateSet struct {
	columns []string
	args    []any
}

func (s *updateSet) add(column string, value any) {
	s.args = append(s.args, value)
	s.columns = append(s.columns, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *updateSet) clause() string {
	return strings.Join(s.columns, ", ")
}
