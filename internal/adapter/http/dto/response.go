package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

// Money renders an amount with two fractional digits.
func Money(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountScale)
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Restricted  bool   `json:"restricted"`
	Description string `json:"description,omitempty"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a domain.Account) *AccountResponse {
	return &AccountResponse{
		Code:        a.Code,
		Name:        a.Name,
		Type:        string(a.Type),
		Restricted:  a.Restricted,
		Description: a.Description,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse is the chart listing.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
}

// BalanceResponse is the balance of one account.
type BalanceResponse struct {
	AccountCode    string `json:"account_code"`
	AccountType    string `json:"account_type"`
	Balance        string `json:"balance"`
	DisplayBalance string `json:"display_balance"`
}

// BalanceFromUseCase converts a computed balance to a response.
func BalanceFromUseCase(b *usecase.AccountBalance) *BalanceResponse {
	return &BalanceResponse{
		AccountCode:    b.Account.Code,
		AccountType:    string(b.Account.Type),
		Balance:        Money(b.Balance),
		DisplayBalance: Money(b.DisplayBalance),
	}
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID              string         `json:"id"`
	TransactionID   string         `json:"transaction_id"`
	TransactionType string         `json:"transaction_type"`
	AccountCode     string         `json:"account_code"`
	Debit           string         `json:"debit"`
	Credit          string         `json:"credit"`
	Description     string         `json:"description,omitempty"`
	ReferenceType   string         `json:"reference_type,omitempty"`
	ReferenceID     string         `json:"reference_id,omitempty"`
	UserID          string         `json:"user_id,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	PostingDate     time.Time      `json:"posting_date"`
	CreatedAt       time.Time      `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:              e.ID,
		TransactionID:   e.TransactionID,
		TransactionType: string(e.TransactionType),
		AccountCode:     e.AccountCode,
		Debit:           Money(e.Debit),
		Credit:          Money(e.Credit),
		Description:     e.Description,
		ReferenceType:   e.ReferenceType,
		ReferenceID:     e.ReferenceID,
		UserID:          e.UserID,
		Metadata:        e.Metadata,
		PostingDate:     e.PostingDate,
		CreatedAt:       e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Limit   int              `json:"limit,omitempty"`
	Offset  int              `json:"offset,omitempty"`
}

// EventResponse is the outcome of an inbound event.
type EventResponse struct {
	TransactionID string `json:"transaction_id"`
	Replayed      bool   `json:"replayed"`
}

// EventFromUseCase converts an event result to a response.
func EventFromUseCase(r *usecase.EventResult) *EventResponse {
	return &EventResponse{TransactionID: r.TransactionID, Replayed: r.Replayed}
}

// DecisionResponse is a restricted fund decision.
type DecisionResponse struct {
	Allowed        bool   `json:"allowed"`
	ReservationID  string `json:"reservation_id,omitempty"`
	CurrentBalance string `json:"current_balance"`
	Available      string `json:"available"`
	Required       string `json:"required"`
	Shortfall      string `json:"shortfall"`
	Replayed       bool   `json:"replayed,omitempty"`
}

// DecisionFromDomain converts a decision to a response.
func DecisionFromDomain(d *domain.ReservationDecision) *DecisionResponse {
	return &DecisionResponse{
		Allowed:        d.Allowed,
		ReservationID:  d.ReservationID,
		CurrentBalance: Money(d.CurrentBalance),
		Available:      Money(d.Available),
		Required:       Money(d.Required),
		Shortfall:      Money(d.Shortfall),
		Replayed:       d.Replayed,
	}
}

// PrizeResponse is one prize of a reservation.
type PrizeResponse struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// ReservationResponse is a draw reservation.
type ReservationResponse struct {
	ID          string          `json:"id"`
	DrawID      string          `json:"draw_id"`
	AccountCode string          `json:"account_code"`
	Status      string          `json:"status"`
	Amount      string          `json:"amount"`
	Remaining   string          `json:"remaining"`
	Prizes      []PrizeResponse `json:"prizes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ReservationFromDomain converts a reservation to a response.
func ReservationFromDomain(r *domain.FundReservation) *ReservationResponse {
	prizes := make([]PrizeResponse, len(r.Prizes))
	for i, p := range r.Prizes {
		prizes[i] = PrizeResponse{Name: p.Name, Amount: Money(p.Amount)}
	}
	return &ReservationResponse{
		ID:          r.ID,
		DrawID:      r.DrawID,
		AccountCode: r.AccountCode,
		Status:      string(r.Status),
		Amount:      Money(r.Amount),
		Remaining:   Money(r.Remaining),
		Prizes:      prizes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ReservationsFromDomain converts reservations to responses.
func ReservationsFromDomain(list []*domain.FundReservation) []*ReservationResponse {
	result := make([]*ReservationResponse, len(list))
	for i, r := range list {
		result[i] = ReservationFromDomain(r)
	}
	return result
}

// FundStatusResponse summarises the restricted fund.
type FundStatusResponse struct {
	AccountCode             string `json:"account_code"`
	Balance                 string `json:"balance"`
	RawBalance              string `json:"raw_balance"`
	TotalContributions      string `json:"total_contributions"`
	TotalDisbursements      string `json:"total_disbursements"`
	Reserved                string `json:"reserved"`
	Available               string `json:"available"`
	NegativeBalanceDetected bool   `json:"negative_balance_detected"`
}

// FundStatusFromDomain converts a fund status to a response.
func FundStatusFromDomain(s *domain.RestrictedFundStatus) *FundStatusResponse {
	return &FundStatusResponse{
		AccountCode:             s.AccountCode,
		Balance:                 Money(s.Balance),
		RawBalance:              Money(s.RawBalance),
		TotalContributions:      Money(s.TotalContributions),
		TotalDisbursements:      Money(s.TotalDisbursements),
		Reserved:                Money(s.Reserved),
		Available:               Money(s.Available),
		NegativeBalanceDetected: s.NegativeBalanceDetected,
	}
}

// ConsistencyResponse reports ledger-wide totals.
type ConsistencyResponse struct {
	Consistent   bool   `json:"consistent"`
	TotalDebits  string `json:"total_debits"`
	TotalCredits string `json:"total_credits"`
}

// DiscrepancyResponse is one account whose running balance disagrees with
// its entries.
type DiscrepancyResponse struct {
	AccountCode       string `json:"account_code"`
	RecordedBalance   string `json:"recorded_balance"`
	CalculatedBalance string `json:"calculated_balance"`
	Difference        string `json:"difference"`
}

// ReconciliationResponse is a reconciliation report.
type ReconciliationResponse struct {
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	LedgerConsistent   bool                   `json:"ledger_consistent"`
	RestrictedNegative bool                   `json:"restricted_negative"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a report to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	discrepancies := make([]*DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = &DiscrepancyResponse{
			AccountCode:       d.AccountCode,
			RecordedBalance:   Money(d.RecordedBalance),
			CalculatedBalance: Money(d.CalculatedBalance),
			Difference:        Money(d.Difference),
		}
	}
	return &ReconciliationResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		LedgerConsistent:   r.LedgerConsistent,
		RestrictedNegative: r.RestrictedNegative,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}
