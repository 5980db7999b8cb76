package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/assettrack/apiserver/types"
)

// Publisher sends a message to a broker channel. *mq.MQ satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attributes map[string]string) (string, error)
}

// EventPublisher emits maintenance change events. Publishing is best-effort:
// the write that triggered the event has already been committed, so a
// failure is logged and swallowed. A nil *EventPublisher is a no-op.
type EventPublisher struct {
	publisher Publisher
	channel   string
	logger    *slog.Logger
	now       func() time.Time
}

func NewEventPublisher(publisher Publisher, channel string, logger *slog.Logger) *EventPublisher {
	if publisher == nil {
		return nil
	}
	return &EventPublisher{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		now:       time.Now,
	}
}

func (e *EventPublisher) MaintenanceChanged(ctx context.Context, eventType types.MaintenanceEventType, userID uuid.UUID, record types.MaintenanceRecord) {
	if e == nil {
		return
	}

	event := types.MaintenanceEvent{
		Type:          eventType,
		MaintenanceID: record.ID,
		AssetID:       record.AssetID,
		UserID:        userID,
		OccurredAt:    e.now().UTC(),
	}
	if eventType != types.EventMaintenanceDeleted {
		event.Record = &record
	}

	data, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("failed to encode maintenance event", "type", eventType, "error", err)
		return
	}

	id, err := e.publisher.Publish(ctx, e.channel, data, map[string]string{
		"type":    string(eventType),
		"user_id": userID.String(),
	})
	if err != nil {
		e.logger.Warn("failed to publish maintenance event",
			"type", eventType,
			"maintenance_id", record.ID,
			"error", err,
		)
		return
	}
	e.logger.Debug("maintenance event published", "type", eventType, "message_id", id)
}
