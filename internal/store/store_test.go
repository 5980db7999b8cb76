package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assettrack/apiserver/types"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var assetCols = []string{"id", "user_id", "name", "description", "created_at", "updated_at"}

var maintenanceCols = []string{
	"id", "asset_id", "service", "expected_at", "performed_at", "description", "done",
	"condition_next_maintenance", "date_next_maintenance", "created_at", "updated_at",
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("Ana Souza", "ana@example.com", "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	user, err := repo.Create(context.Background(), types.User{
		Name:         "Ana Souza",
		Email:        "ana@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), types.User{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE lower(email) = $1`)).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(id.String(), "Ana", "Ana@Example.com", "hash", now, now))

	user, err := repo.GetByEmail(context.Background(), "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssetRepository_ListByOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssetRepository(db)
	owner := uuid.New()
	now := time.Now()
	desc := "yard"

	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets WHERE user_id = $1 ORDER BY created_at DESC`)).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(assetCols).
			AddRow(uuid.NewString(), owner.String(), "Forklift", desc, now, now).
			AddRow(uuid.NewString(), owner.String(), "Generator", nil, now, now))

	assets, err := repo.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "Forklift", assets[0].Name)
	require.NotNil(t, assets[0].Description)
	assert.Equal(t, "yard", *assets[0].Description)
	assert.Nil(t, assets[1].Description)
	assert.Equal(t, owner, assets[1].UserID)
}

func TestAssetRepository_ListByOwnerEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssetRepository(db)

	mock.ExpectQuery(`FROM assets`).WillReturnRows(sqlmock.NewRows(assetCols))

	assets, err := repo.ListByOwner(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, assets)
	assert.Empty(t, assets)
}

func TestAssetRepository_UpdateClearsDescription(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssetRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE assets SET description = $1, updated_at = $2 WHERE id = $3 RETURNING`)).
		WithArgs(nil, sqlmock.AnyArg(), id).
		WillReturnRows(sqlmock.NewRows(assetCols).AddRow(id.String(), uuid.NewString(), "Forklift", nil, now, now))

	asset, err := repo.Update(context.Background(), id, types.AssetPatch{Description: types.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, asset.Description)
}

func TestAssetRepository_UpdateNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE assets SET name = $1, updated_at = $2`)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), uuid.New(), types.AssetPatch{Name: types.Some("Crane")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssetRepository_UpdateEmptyPatchReads(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssetRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM assets WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(assetCols).AddRow(id.String(), uuid.NewString(), "Forklift", nil, now, now))

	asset, err := repo.Update(context.Background(), id, types.AssetPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Forklift", asset.Name)
}

func TestAssetRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssetRepository(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM assets WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM assets WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
}

func TestMaintenanceRepository_CreateAndGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMaintenanceRepository(db)
	assetID := uuid.New()
	id := uuid.New()
	expected := types.Date{Year: 2025, Month: time.January, Day: 5}
	done := false
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO maintenance_records`)).
		WithArgs(assetID, "Oil change", "2025-01-05", nil, nil, false, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	created, err := repo.Create(context.Background(), types.MaintenanceRecord{
		AssetID:    assetID,
		Service:    "Oil change",
		ExpectedAt: &expected,
		Done:       &done,
	})
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM maintenance_records WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(maintenanceCols).AddRow(
			id.String(), assetID.String(), "Oil change",
			time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), nil, nil, false, nil, nil, now, now,
		))

	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got.ExpectedAt)
	assert.Equal(t, expected, *got.ExpectedAt)
	assert.Nil(t, got.PerformedAt)
	require.NotNil(t, got.Done)
	assert.False(t, *got.Done)
}

func TestMaintenanceRepository_ListByAssetError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMaintenanceRepository(db)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM maintenance_records WHERE asset_id = $1 ORDER BY created_at DESC`)).
		WillReturnError(boom)

	_, err := repo.ListByAsset(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
}

func TestMaintenanceRepository_UpdatePatchColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMaintenanceRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		`UPDATE maintenance_records SET performed_at = $1, done = $2, updated_at = $3 WHERE id = $4 RETURNING`,
	)).
		WithArgs("2025-01-06", true, sqlmock.AnyArg(), id).
		WillReturnRows(sqlmock.NewRows(maintenanceCols).AddRow(
			id.String(), uuid.NewString(), "Oil change",
			nil, "2025-01-06", nil, true, nil, nil, now, now,
		))

	record, err := repo.Update(context.Background(), id, types.MaintenanceChanges{
		PerformedAt: types.Some(types.Date{Year: 2025, Month: time.January, Day: 6}),
		Done:        types.Some(true),
	})
	require.NoError(t, err)
	assert.True(t, record.IsDone())
	require.NotNil(t, record.PerformedAt)
	assert.Equal(t, "2025-01-06", record.PerformedAt.String())
}

func TestMaintenanceRepository_ListPending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMaintenanceRepository(db)
	owner := uuid.New()
	assetID := uuid.New()
	now := time.Now()

	cols := append(append([]string{}, maintenanceCols...), "name", "user_id")
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE m.done IS NOT TRUE`)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			uuid.NewString(), assetID.String(), "Filter", "2025-01-05", nil, nil, nil, nil, nil, now, now,
			"Forklift", owner.String(),
		))

	pending, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Forklift", pending[0].AssetName)
	assert.Equal(t, owner, pending[0].OwnerID)
	assert.Nil(t, pending[0].Record.Done)
	assert.False(t, pending[0].Record.IsDone())
}
