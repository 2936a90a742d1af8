package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundledger/internal/adapter/http/dto"
	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

// AccountService defines the interface for chart and balance reads.
type AccountService interface {
	ListAccounts() []domain.Account
	GetAccount(code string) (domain.Account, error)
	GetBalance(ctx context.Context, code string) (*usecase.AccountBalance, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// writeAccountError answers 404 for codes missing from the chart. Unknown
// accounts only mean a configuration fault when a posting names them.
func writeAccountError(w http.ResponseWriter, message string, err error) {
	if errors.Is(err, domain.ErrUnknownAccount) {
		writeError(w, http.StatusNotFound, "account not found", err.Error())
		return
	}
	writeDomainError(w, message, err)
}

// List returns the chart of accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts := h.accountUC.ListAccounts()
	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    len(accounts),
	})
}

// Get returns one account by code.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing account code", "")
		return
	}

	account, err := h.accountUC.GetAccount(code)
	if err != nil {
		writeAccountError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Balance returns the current balance of one account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing account code", "")
		return
	}

	balance, err := h.accountUC.GetBalance(r.Context(), code)
	if err != nil {
		writeAccountError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromUseCase(balance))
}
