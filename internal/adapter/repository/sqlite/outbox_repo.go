package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

const outboxColumns = `id, aggregate_id, aggregate_type, event_type, payload, created_at, published_at, published`

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	sqlTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	_, err = sqlTx.ExecContext(ctx, `INSERT INTO outbox_events (id, aggregate_id, aggregate_type, event_type, payload, created_at, published)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.AggregateID, event.AggregateType, event.EventType, string(payload),
		formatTime(event.CreatedAt), event.Published)
	return err
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return r.query(ctx, `SELECT `+outboxColumns+` FROM outbox_events WHERE published = 0
		ORDER BY created_at, id LIMIT ?`, limit)
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox_events SET published = 1, published_at = ? WHERE id = ?`,
		formatTime(publishedAt), id)
	return err
}

// GetByAggregate retrieves events for a specific aggregate.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	return r.query(ctx, `SELECT `+outboxColumns+` FROM outbox_events WHERE aggregate_type = ? AND aggregate_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, aggregateType, aggregateID, limit, offset)
}

// DeletePublished deletes published events older than before.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM outbox_events WHERE published = 1 AND published_at < ?`, formatTime(before))
	return err
}

func (r *OutboxRepository) query(ctx context.Context, query string, args ...any) ([]*domain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var (
			e           domain.OutboxEvent
			payload     string
			created     string
			publishedAt sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &payload,
			&created, &publishedAt, &e.Published); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if publishedAt.Valid {
			t, err := parseTime(publishedAt.String)
			if err != nil {
				return nil, err
			}
			e.PublishedAt = &t
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
