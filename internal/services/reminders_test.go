package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/assettrack/apiserver/types"
)

func TestReminderService_Run(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	assets := newMemoryAssets()
	maintenance := newMemoryMaintenance(assets)
	ana := uuid.New()
	forklift := assets.add(ana, "Forklift")
	overdue := maintenance.add(types.MaintenanceRecord{AssetID: forklift.ID, Service: "Oil change", ExpectedAt: date(2025, 1, 1)})
	upcoming := maintenance.add(types.MaintenanceRecord{AssetID: forklift.ID, Service: "Brakes", ExpectedAt: date(2025, 1, 9)})
	maintenance.add(types.MaintenanceRecord{AssetID: forklift.ID, Service: "Paint", ExpectedAt: date(2025, 1, 10)})
	maintenance.add(types.MaintenanceRecord{AssetID: forklift.ID, Service: "Tires"})
	maintenance.add(types.MaintenanceRecord{AssetID: forklift.ID, Service: "Done", ExpectedAt: date(2024, 12, 1), Done: boolPtr(true)})

	publisher := &mockPublisher{}
	var published []types.Reminder
	publisher.On("Publish", mock.Anything, "maintenance-reminders", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			var reminder types.Reminder
			require.NoError(t, json.Unmarshal(args.Get(2).([]byte), &reminder))
			published = append(published, reminder)
		}).
		Return("id", nil)

	svc := NewReminderService(maintenance, publisher, "maintenance-reminders", testLogger)
	sent, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	require.Len(t, published, 2)
	byID := map[uuid.UUID]types.Reminder{}
	for _, reminder := range published {
		byID[reminder.MaintenanceID] = reminder
		assert.Equal(t, ana, reminder.UserID)
		assert.Equal(t, "Forklift", reminder.AssetName)
	}
	assert.Equal(t, types.StatusOverdue, byID[overdue.ID].Status.Status)
	assert.Equal(t, types.StatusUpcoming, byID[upcoming.ID].Status.Status)
	assert.Equal(t, 7, byID[upcoming.ID].Status.DaysUntil)
}

func TestReminderService_Failures(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	assets := newMemoryAssets()
	maintenance := newMemoryMaintenance(assets)
	forklift := assets.add(uuid.New(), "Forklift")
	maintenance.add(types.MaintenanceRecord{AssetID: forklift.ID, Service: "Oil change", ExpectedAt: date(2025, 1, 1)})

	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, "r", mock.Anything, mock.Anything).Return("", errBoom)
	svc := NewReminderService(maintenance, publisher, "r", testLogger)

	sent, err := svc.Run(context.Background(), now)
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, sent)

	maintenance.err = errBoom
	_, err = svc.Run(context.Background(), now)
	assert.ErrorIs(t, err, ErrStoreFailure)
}
