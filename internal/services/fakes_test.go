package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/assettrack/apiserver/internal/logger"
	"github.com/assettrack/apiserver/internal/storage"
	"github.com/assettrack/apiserver/internal/store"
	"github.com/assettrack/apiserver/types"
)

var errBoom = errors.New("connection reset")

var testLogger = logger.Discard()

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func date(y int, m time.Month, d int) *types.Date {
	v := types.Date{Year: y, Month: m, Day: d}
	return &v
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

type memoryUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]types.User
	err   error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[uuid.UUID]types.User{}}
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.User{}, m.err
	}
	user, ok := m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.User{}, m.err
	}
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memoryUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.User{}, m.err
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user, nil
}

type memoryAssets struct {
	mu     sync.Mutex
	order  []uuid.UUID
	assets map[uuid.UUID]types.Asset
	err    error
	writes int
}

func newMemoryAssets() *memoryAssets {
	return &memoryAssets{assets: map[uuid.UUID]types.Asset{}}
}

func (m *memoryAssets) add(owner uuid.UUID, name string) types.Asset {
	asset, _ := m.Create(context.Background(), types.Asset{UserID: owner, Name: name})
	m.writes = 0
	return asset
}

func (m *memoryAssets) Create(_ context.Context, asset types.Asset) (types.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.Asset{}, m.err
	}
	asset.ID = uuid.New()
	asset.CreatedAt = time.Now()
	asset.UpdatedAt = asset.CreatedAt
	m.assets[asset.ID] = asset
	m.order = append([]uuid.UUID{asset.ID}, m.order...)
	m.writes++
	return asset, nil
}

func (m *memoryAssets) GetByID(_ context.Context, id uuid.UUID) (types.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.Asset{}, m.err
	}
	asset, ok := m.assets[id]
	if !ok {
		return types.Asset{}, store.ErrNotFound
	}
	return asset, nil
}

func (m *memoryAssets) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]types.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	assets := make([]types.Asset, 0)
	for _, id := range m.order {
		if asset, ok := m.assets[id]; ok && asset.UserID == ownerID {
			assets = append(assets, asset)
		}
	}
	return assets, nil
}

func (m *memoryAssets) Update(_ context.Context, id uuid.UUID, patch types.AssetPatch) (types.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.Asset{}, m.err
	}
	asset, ok := m.assets[id]
	if !ok {
		return types.Asset{}, store.ErrNotFound
	}
	if patch.Name.Set {
		asset.Name = patch.Name.Value
	}
	if patch.Description.Set {
		asset.Description = patch.Description.Ptr()
	}
	asset.UpdatedAt = time.Now()
	m.assets[id] = asset
	m.writes++
	return asset, nil
}

func (m *memoryAssets) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.assets[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.assets, id)
	m.writes++
	return nil
}

type memoryMaintenance struct {
	mu      sync.Mutex
	order   []uuid.UUID
	records map[uuid.UUID]types.MaintenanceRecord
	assets  *memoryAssets
	listErr map[uuid.UUID]error
	err     error
	writes  int
}

func newMemoryMaintenance(assets *memoryAssets) *memoryMaintenance {
	return &memoryMaintenance{
		records: map[uuid.UUID]types.MaintenanceRecord{},
		assets:  assets,
		listErr: map[uuid.UUID]error{},
	}
}

func (m *memoryMaintenance) add(record types.MaintenanceRecord) types.MaintenanceRecord {
	created, _ := m.Create(context.Background(), record)
	m.writes = 0
	return created
}

func (m *memoryMaintenance) Create(_ context.Context, record types.MaintenanceRecord) (types.MaintenanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.MaintenanceRecord{}, m.err
	}
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	m.records[record.ID] = record
	m.order = append([]uuid.UUID{record.ID}, m.order...)
	m.writes++
	return record, nil
}

func (m *memoryMaintenance) GetByID(_ context.Context, id uuid.UUID) (types.MaintenanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.MaintenanceRecord{}, m.err
	}
	record, ok := m.records[id]
	if !ok {
		return types.MaintenanceRecord{}, store.ErrNotFound
	}
	return record, nil
}

func (m *memoryMaintenance) ListByAsset(_ context.Context, assetID uuid.UUID) ([]types.MaintenanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.listErr[assetID]; err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	records := make([]types.MaintenanceRecord, 0)
	for _, id := range m.order {
		if record, ok := m.records[id]; ok && record.AssetID == assetID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *memoryMaintenance) ListPending(ctx context.Context) ([]types.PendingMaintenance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	pending := make([]types.PendingMaintenance, 0)
	for _, id := range m.order {
		record := m.records[id]
		if record.IsDone() {
			continue
		}
		asset, err := m.assets.GetByID(ctx, record.AssetID)
		if err != nil {
			continue
		}
		pending = append(pending, types.PendingMaintenance{Record: record, AssetName: asset.Name, OwnerID: asset.UserID})
	}
	return pending, nil
}

func (m *memoryMaintenance) Update(_ context.Context, id uuid.UUID, patch types.MaintenanceChanges) (types.MaintenanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.MaintenanceRecord{}, m.err
	}
	record, ok := m.records[id]
	if !ok {
		return types.MaintenanceRecord{}, store.ErrNotFound
	}
	if patch.Service.Set {
		record.Service = patch.Service.Value
	}
	if patch.ExpectedAt.Set {
		record.ExpectedAt = patch.ExpectedAt.Ptr()
	}
	if patch.PerformedAt.Set {
		record.PerformedAt = patch.PerformedAt.Ptr()
	}
	if patch.Description.Set {
		record.Description = patch.Description.Ptr()
	}
	if patch.Done.Set {
		record.Done = patch.Done.Ptr()
	}
	if patch.ConditionNextMaintenance.Set {
		record.ConditionNextMaintenance = patch.ConditionNextMaintenance.Ptr()
	}
	if patch.DateNextMaintenance.Set {
		record.DateNextMaintenance = patch.DateNextMaintenance.Ptr()
	}
	record.UpdatedAt = time.Now()
	m.records[id] = record
	m.writes++
	return record, nil
}

func (m *memoryMaintenance) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.records, id)
	m.writes++
	return nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, data []byte, attributes map[string]string) (string, error) {
	args := m.Called(ctx, channel, data, attributes)
	return args.String(0), args.Error(1)
}

type memoryExports struct {
	mu      sync.Mutex
	objects map[string][]byte
	created map[string]time.Time
	err     error

	// deleteErr fails Delete only, leaving Put and List working.
	deleteErr error
}

func newMemoryExports() *memoryExports {
	return &memoryExports{objects: map[string][]byte{}, created: map[string]time.Time{}}
}

func (m *memoryExports) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.created[key] = time.Now()
	return nil
}

func (m *memoryExports) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryExports) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	delete(m.created, key)
	return nil
}

func (m *memoryExports) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	objects := make([]storage.ObjectInfo, 0)
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, storage.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: m.created[key]})
		}
	}
	return objects, nil
}
