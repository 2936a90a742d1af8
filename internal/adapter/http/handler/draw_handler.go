package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/adapter/http/dto"
	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

// DrawService reserves and releases prize money for draws.
type DrawService interface {
	OnDrawCreationRequested(ctx context.Context, req usecase.DrawRequest) (*domain.ReservationDecision, error)
	OnDrawCancelled(ctx context.Context, drawID string) (*domain.FundReservation, error)
}

// FundService reads the restricted fund.
type FundService interface {
	Check(ctx context.Context, required decimal.Decimal) (*domain.ReservationDecision, error)
	Reservation(ctx context.Context, drawID string) (*domain.FundReservation, error)
	ActiveReservations(ctx context.Context) ([]*domain.FundReservation, error)
	Status(ctx context.Context) (*domain.RestrictedFundStatus, error)
}

// DrawHandler handles draw reservation endpoints.
type DrawHandler struct {
	draws     DrawService
	fund      FundService
	validator *dto.ValidationHelper
}

// NewDrawHandler creates a new draw handler.
func NewDrawHandler(draws DrawService, fund FundService, v *dto.ValidationHelper) *DrawHandler {
	return &DrawHandler{draws: draws, fund: fund, validator: v}
}

// Check handles POST /draws/check. It never reserves anything.
func (h *DrawHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckDrawRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	decision, err := h.fund.Check(r.Context(), req.Amount)
	if err != nil {
		writeDomainError(w, "failed to check fund", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DecisionFromDomain(decision))
}

// Create handles POST /draws.
func (h *DrawHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDrawRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	decision, err := h.draws.OnDrawCreationRequested(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to reserve draw", err)
		return
	}

	status := http.StatusCreated
	switch {
	case !decision.Allowed:
		status = http.StatusConflict
	case decision.Replayed:
		status = http.StatusOK
	}
	writeJSON(w, status, dto.DecisionFromDomain(decision))
}

// Get handles GET /draws/{id}.
func (h *DrawHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.fund.Reservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get reservation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReservationFromDomain(res))
}

// List handles GET /draws and returns active reservations.
func (h *DrawHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.fund.ActiveReservations(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list reservations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReservationsFromDomain(list))
}

// Cancel handles DELETE /draws/{id}.
func (h *DrawHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	res, err := h.draws.OnDrawCancelled(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to cancel draw", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReservationFromDomain(res))
}

// FundStatus handles GET /fund/status.
func (h *DrawHandler) FundStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.fund.Status(r.Context())
	if err != nil {
		writeDomainError(w, "failed to read fund status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FundStatusFromDomain(status))
}
