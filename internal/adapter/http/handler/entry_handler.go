package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundledger/internal/adapter/http/dto"
	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

// EntryService lists ledger entries.
type EntryService interface {
	GetEntriesByAccount(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.LedgerEntry, error)
	GetEntriesByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error)
	GetEntriesByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// ListByAccount lists entries for an account.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing account code", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.entryUC.GetEntriesByAccount(r.Context(), usecase.GetEntriesByAccountInput{
		AccountCode: code,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		writeAccountError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Limit:   limit,
		Offset:  offset,
	})
}

// ListByTransaction lists the entries of one transaction.
func (h *EntryHandler) ListByTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	if transactionID == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	entries, err := h.entryUC.GetEntriesByTransaction(r.Context(), transactionID)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{Entries: dto.EntriesFromDomain(entries)})
}

// ListByReference lists entries posted for an external record.
func (h *EntryHandler) ListByReference(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	entries, err := h.entryUC.GetEntriesByReference(r.Context(), q.Get("reference_type"), q.Get("reference_id"))
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{Entries: dto.EntriesFromDomain(entries)})
}
