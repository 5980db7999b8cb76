package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/assettrack/apiserver/config"
)

const appID = "assettrack"

// RabbitMQClient publishes to and consumes from queues on the default
// exchange. Each queue is declared at most once per connection.
type RabbitMQClient struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	durable    bool
	autoDelete bool

	mu       sync.Mutex
	declared map[string]struct{}
}

// NewRabbitMQClient connects and declares queues up front, typically the
// maintenance events and reminders queues. Other queues are declared on
// first use.
func NewRabbitMQClient(cfg config.RabbitMQConfig, queues ...string) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	client := &RabbitMQClient{
		conn:       conn,
		channel:    ch,
		durable:    cfg.QueueDurable,
		autoDelete: cfg.QueueAutoDelete,
		declared:   make(map[string]struct{}),
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	for _, queue := range queues {
		if err := client.ensureQueue(queue); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

// Publish sends data to the named queue and returns the generated message ID.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if err := r.ensureQueue(channel); err != nil {
		return "", err
	}

	msg := newPublishing(data, attrs, r.durable, time.Now())
	if err := r.channel.PublishWithContext(ctx, "", channel, false, false, msg); err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	return msg.MessageId, nil
}

// Subscribe consumes the named queue until ctx is done or the broker closes
// the delivery channel.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if err := r.ensureQueue(channel); err != nil {
		return err
	}

	consumerTag := appID + "-" + uuid.NewString()
	deliveries, err := r.channel.Consume(channel, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", channel, err)
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			if err := handleDelivery(ctx, delivery, handler); err != nil {
				return fmt.Errorf("settle delivery on %s: %w", channel, err)
			}
		}
	}
}

func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) ensureQueue(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("rabbitmq channel is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.declared[name]; ok {
		return nil
	}
	if _, err := r.channel.QueueDeclare(name, r.durable, r.autoDelete, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	r.declared[name] = struct{}{}
	return nil
}

// newPublishing builds the AMQP message for a JSON body. The "type"
// attribute, carried by every maintenance event, is mirrored into the AMQP
// type property.
func newPublishing(data []byte, attrs map[string]string, persistent bool, now time.Time) amqp.Publishing {
	headers := make(amqp.Table, len(attrs))
	for key, value := range attrs {
		headers[key] = value
	}
	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		MessageId:    uuid.NewString(),
		Timestamp:    now.UTC(),
		Type:         attrs["type"],
		AppId:        appID,
		Headers:      headers,
		Body:         data,
	}
}

// handleDelivery runs handler and settles the delivery. A failed message is
// requeued once; failing again after redelivery drops it.
func handleDelivery(ctx context.Context, delivery amqp.Delivery, handler Handler) error {
	if err := handler(ctx, messageFromDelivery(delivery)); err != nil {
		return delivery.Nack(false, !delivery.Redelivered)
	}
	return delivery.Ack(false)
}

func messageFromDelivery(delivery amqp.Delivery) Message {
	attrs := headersToAttributes(delivery.Headers)
	if delivery.Type != "" {
		if attrs == nil {
			attrs = make(map[string]string, 1)
		}
		if _, ok := attrs["type"]; !ok {
			attrs["type"] = delivery.Type
		}
	}
	return Message{
		ID:         delivery.MessageId,
		Data:       delivery.Body,
		Attributes: attrs,
	}
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
