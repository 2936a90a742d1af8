package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/iho/fundledger/internal/adapter/http/dto"
	"github.com/iho/fundledger/internal/usecase"
)

// LedgerService reports ledger-wide totals.
type LedgerService interface {
	Totals(ctx context.Context) (*usecase.LedgerTotals, error)
}

// ReconciliationService compares running balances with entry sums.
type ReconciliationService interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledgerUC LedgerService
	reconUC  ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reconUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reconUC: reconUC}
}

// CheckConsistency checks if the ledger is consistent.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	totals, err := h.ledgerUC.Totals(r.Context())
	if err != nil && !errors.Is(err, usecase.ErrInconsistentLedger) {
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ConsistencyResponse{
		Consistent:   err == nil,
		TotalDebits:  dto.Money(totals.Debits),
		TotalCredits: dto.Money(totals.Credits),
	})
}

// Reconciliation returns a full reconciliation report. Discrepancies are
// reported with 409.
func (h *LedgerHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reconcile", err.Error())
		return
	}

	status := http.StatusOK
	if len(report.Discrepancies) > 0 || !report.LedgerConsistent || report.RestrictedNegative {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ReconciliationFromUseCase(report))
}
