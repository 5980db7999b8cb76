package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/assettrack/apiserver/config"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// NewFromConfig connects to the broker named by cfg.Provider. An empty
// provider disables messaging and returns nil.
func NewFromConfig(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := NewRabbitMQClient(cfg.RabbitMQ, cfg.EventsChannel, cfg.RemindersChannel)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		return New(client), nil
	case "pubsub":
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq provider %q", cfg.Provider)
	}
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}

// Decode unmarshals a JSON message body into T.
func Decode[T any](msg Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Data, &v); err != nil {
		return v, fmt.Errorf("decode message %s: %w", msg.ID, err)
	}
	return v, nil
}
