package domain

import "time"

// Event types
const (
	EventTypeTransactionCommitted    = "ledger.transaction.committed"
	EventTypeReservationCreated      = "fund.reservation.created"
	EventTypeReservationConsumed     = "fund.reservation.consumed"
	EventTypeReservationReleased     = "fund.reservation.released"
	EventTypeNegativeBalanceDetected = "fund.negative_balance_detected"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeReservation = "reservation"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionCommittedEvent payload
type TransactionCommittedEvent struct {
	TransactionID   string   `json:"transaction_id"`
	TransactionType string   `json:"transaction_type"`
	Accounts        []string `json:"accounts"`
	Amount          string   `json:"amount"`
	ReferenceType   string   `json:"reference_type,omitempty"`
	ReferenceID     string   `json:"reference_id,omitempty"`
	PostingDate     string   `json:"posting_date"`
}

// ReservationEvent payload
type ReservationEvent struct {
	ReservationID string `json:"reservation_id"`
	DrawID        string `json:"draw_id"`
	Amount        string `json:"amount"`
	Remaining     string `json:"remaining"`
}
