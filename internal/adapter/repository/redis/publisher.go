package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// Message is the JSON document published for an outbox event.
type Message struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Publisher publishes outbox events on a Redis channel.
type Publisher struct {
	client  redis.UniversalClient
	channel string
	metrics *metrics.Metrics
}

// NewPublisher creates a new Publisher for channel.
func NewPublisher(client redis.UniversalClient, channel string, m *metrics.Metrics) *Publisher {
	return &Publisher{client: client, channel: channel, metrics: m}
}

// Publish sends event to the channel.
func (p *Publisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	data, err := json.Marshal(Message{
		ID:            event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return err
	}

	err = p.client.Publish(ctx, p.channel, data).Err()
	recordOperation(p.metrics, "publish", err)
	return err
}
