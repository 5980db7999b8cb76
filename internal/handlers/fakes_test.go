package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assettrack/apiserver/internal/store"
	"github.com/assettrack/apiserver/types"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]types.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return user, nil
}

type fakeAssets struct {
	mu     sync.Mutex
	order  []uuid.UUID
	assets map[uuid.UUID]types.Asset
	err    error
}

func (f *fakeAssets) Create(_ context.Context, asset types.Asset) (types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.Asset{}, f.err
	}
	asset.ID = uuid.New()
	asset.CreatedAt = time.Now()
	asset.UpdatedAt = asset.CreatedAt
	f.assets[asset.ID] = asset
	f.order = append([]uuid.UUID{asset.ID}, f.order...)
	return asset, nil
}

func (f *fakeAssets) GetByID(_ context.Context, id uuid.UUID) (types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.Asset{}, f.err
	}
	asset, ok := f.assets[id]
	if !ok {
		return types.Asset{}, store.ErrNotFound
	}
	return asset, nil
}

func (f *fakeAssets) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	assets := make([]types.Asset, 0)
	for _, id := range f.order {
		if asset, ok := f.assets[id]; ok && asset.UserID == ownerID {
			assets = append(assets, asset)
		}
	}
	return assets, nil
}

func (f *fakeAssets) Update(_ context.Context, id uuid.UUID, patch types.AssetPatch) (types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	asset, ok := f.assets[id]
	if !ok {
		return types.Asset{}, store.ErrNotFound
	}
	if patch.Name.Set {
		asset.Name = patch.Name.Value
	}
	if patch.Description.Set {
		asset.Description = patch.Description.Ptr()
	}
	f.assets[id] = asset
	return asset, nil
}

func (f *fakeAssets) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.assets[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.assets, id)
	return nil
}

type fakeMaintenance struct {
	mu      sync.Mutex
	order   []uuid.UUID
	records map[uuid.UUID]types.MaintenanceRecord
}

func (f *fakeMaintenance) Create(_ context.Context, record types.MaintenanceRecord) (types.MaintenanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	f.records[record.ID] = record
	f.order = append([]uuid.UUID{record.ID}, f.order...)
	return record, nil
}

func (f *fakeMaintenance) GetByID(_ context.Context, id uuid.UUID) (types.MaintenanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return types.MaintenanceRecord{}, store.ErrNotFound
	}
	return record, nil
}

func (f *fakeMaintenance) ListByAsset(_ context.Context, assetID uuid.UUID) ([]types.MaintenanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := make([]types.MaintenanceRecord, 0)
	for _, id := range f.order {
		if record, ok := f.records[id]; ok && record.AssetID == assetID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (f *fakeMaintenance) ListPending(context.Context) ([]types.PendingMaintenance, error) {
	return nil, nil
}

func (f *fakeMaintenance) Update(_ context.Context, id uuid.UUID, patch types.MaintenanceChanges) (types.MaintenanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return types.MaintenanceRecord{}, store.ErrNotFound
	}
	if patch.Service.Set {
		record.Service = patch.Service.Value
	}
	if patch.ExpectedAt.Set {
		record.ExpectedAt = patch.ExpectedAt.Ptr()
	}
	if patch.Done.Set {
		record.Done = patch.Done.Ptr()
	}
	if patch.Description.Set {
		record.Description = patch.Description.Ptr()
	}
	f.records[id] = record
	return record, nil
}

func (f *fakeMaintenance) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.records, id)
	return nil
}
