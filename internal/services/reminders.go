package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/assettrack/apiserver/internal/status"
	"github.com/assettrack/apiserver/types"
)

// PendingLister lists every record not yet done, across all owners.
type PendingLister interface {
	ListPending(ctx context.Context) ([]types.PendingMaintenance, error)
}

// ReminderService publishes a reminder for each overdue or upcoming record.
type ReminderService struct {
	pending   PendingLister
	publisher Publisher
	channel   string
	logger    *slog.Logger
}

func NewReminderService(pending PendingLister, publisher Publisher, channel string, logger *slog.Logger) *ReminderService {
	return &ReminderService{
		pending:   pending,
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

// Run does one pass at now and returns how many reminders were published.
// A publish failure stops the pass.
func (s *ReminderService) Run(ctx context.Context, now time.Time) (int, error) {
	pending, err := s.pending.ListPending(ctx)
	if err != nil {
		return 0, storeFailure("list pending maintenance", err)
	}

	sent := 0
	for _, item := range pending {
		classification := status.ClassifyRecord(item.Record, now)
		if !classification.Urgent() {
			continue
		}

		reminder := types.Reminder{
			UserID:        item.OwnerID,
			AssetID:       item.Record.AssetID,
			AssetName:     item.AssetName,
			MaintenanceID: item.Record.ID,
			Service:       item.Record.Service,
			ExpectedAt:    item.Record.ExpectedAt,
			Status:        classification,
			GeneratedAt:   now.UTC(),
		}
		data, err := json.Marshal(reminder)
		if err != nil {
			return sent, fmt.Errorf("encode reminder: %w", err)
		}
		if _, err := s.publisher.Publish(ctx, s.channel, data, map[string]string{
			"status":  string(classification.Status),
			"user_id": item.OwnerID.String(),
		}); err != nil {
			return sent, fmt.Errorf("publish reminder for %s: %w", item.Record.ID, err)
		}
		sent++
	}

	s.logger.Info("reminder pass finished", "pending", len(pending), "sent", sent)
	return sent, nil
}
