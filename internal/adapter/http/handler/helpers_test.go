package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/adapter/http/dto"
	"github.com/iho/fundledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts/1000/entries?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts/1000/entries?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"unbalanced", &domain.UnbalancedTransactionError{Debits: decimal.NewFromInt(1), Credits: decimal.Zero}, http.StatusUnprocessableEntity},
		{"insufficient restricted", &domain.InsufficientRestrictedFundsError{}, http.StatusConflict},
		{"duplicate", domain.ErrDuplicateTransaction, http.StatusConflict},
		{"withdrawal not pending", domain.ErrWithdrawalNotPending, http.StatusConflict},
		{"storage", &domain.StorageWriteError{Err: errors.New("disk full")}, http.StatusServiceUnavailable},
		{"reservation not found", domain.ErrReservationNotFound, http.StatusNotFound},
		{"transaction not found", fmt.Errorf("lookup: %w", domain.ErrTransactionNotFound), http.StatusNotFound},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"invalid split", domain.ErrInvalidSplit, http.StatusBadRequest},
		{"missing reference", domain.ErrMissingReference, http.StatusBadRequest},
		{"unknown account", &domain.UnknownAccountError{Code: "9999"}, http.StatusInternalServerError},
		{"negative restricted", &domain.NegativeRestrictedBalanceError{}, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "bad", "details")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Error != "bad" || resp.Message != "details" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestDecodeAndValidate(t *testing.T) {
	v := dto.NewValidationHelper()

	tests := []struct {
		name   string
		body   string
		ok     bool
		detail string
	}{
		{name: "valid", body: `{"payment_id":"p1","amount":"10.00"}`, ok: true},
		{name: "malformed", body: `{"payment_id":`},
		{name: "unknown field", body: `{"payment_id":"p1","amount":"1","extra":true}`},
		{name: "zero amount", body: `{"payment_id":"p1","amount":"0"}`, detail: "amount"},
		{name: "missing id", body: `{"amount":"5"}`, detail: "payment_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			var dst dto.MembershipPaymentRequest

			if got := decodeAndValidate(rec, req, v, &dst); got != tt.ok {
				t.Fatalf("expected ok=%v, got %v (%s)", tt.ok, got, rec.Body.String())
			}
			if tt.ok {
				return
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if tt.detail != "" {
				var resp dto.ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode: %v", err)
				}
				if _, ok := resp.Details[tt.detail]; !ok {
					t.Fatalf("expected detail for %s, got %+v", tt.detail, resp.Details)
				}
			}
		})
	}
}
