package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/fundledger/internal/adapter/http/dto"
	"github.com/iho/fundledger/internal/usecase"
)

// EventService defines the inbound business events the handler relays.
type EventService interface {
	OnMembershipPaymentConfirmed(ctx context.Context, in usecase.MembershipPaymentInput) (*usecase.EventResult, error)
	OnPrizeClaimed(ctx context.Context, in usecase.PrizePayoutInput) (*usecase.EventResult, error)
	OnPrizeExpired(ctx context.Context, in usecase.CommunitySupportInput) (*usecase.EventResult, error)
	OnReferralBonusAccrued(ctx context.Context, in usecase.BonusInput) (*usecase.EventResult, error)
	OnTierBonusAccrued(ctx context.Context, in usecase.BonusInput) (*usecase.EventResult, error)
	OnWithdrawalRequested(ctx context.Context, in usecase.WithdrawalInput, immediate bool) (*usecase.EventResult, error)
	OnWithdrawalCompleted(ctx context.Context, withdrawalID string) (*usecase.EventResult, error)
	OnWithdrawalRejected(ctx context.Context, withdrawalID string) (*usecase.EventResult, error)
}

// EventHandler handles inbound business events.
type EventHandler struct {
	events    EventService
	validator *dto.ValidationHelper
}

// NewEventHandler creates a new event handler.
func NewEventHandler(events EventService, v *dto.ValidationHelper) *EventHandler {
	return &EventHandler{events: events, validator: v}
}

// writeEventResult answers 201 for a new posting and 200 for a replay.
func writeEventResult(w http.ResponseWriter, res *usecase.EventResult, err error) {
	if err != nil {
		writeDomainError(w, "event rejected", err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.EventFromUseCase(res))
}

// MembershipPayment handles POST /events/membership-payments.
func (h *EventHandler) MembershipPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.MembershipPaymentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	res, err := h.events.OnMembershipPaymentConfirmed(r.Context(), req.ToUseCaseInput())
	writeEventResult(w, res, err)
}

// PrizeClaim handles POST /events/prize-claims.
func (h *EventHandler) PrizeClaim(w http.ResponseWriter, r *http.Request) {
	var req dto.PrizeClaimRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	res, err := h.events.OnPrizeClaimed(r.Context(), req.ToUseCaseInput())
	writeEventResult(w, res, err)
}

// PrizeExpiration handles POST /events/prize-expirations.
func (h *EventHandler) PrizeExpiration(w http.ResponseWriter, r *http.Request) {
	var req dto.PrizeExpirationRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	res, err := h.events.OnPrizeExpired(r.Context(), req.ToUseCaseInput())
	writeEventResult(w, res, err)
}

// ReferralBonus handles POST /events/referral-bonuses.
func (h *EventHandler) ReferralBonus(w http.ResponseWriter, r *http.Request) {
	var req dto.BonusRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	res, err := h.events.OnReferralBonusAccrued(r.Context(), req.ToUseCaseInput())
	writeEventResult(w, res, err)
}

// TierBonus handles POST /events/tier-bonuses.
func (h *EventHandler) TierBonus(w http.ResponseWriter, r *http.Request) {
	var req dto.BonusRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	res, err := h.events.OnTierBonusAccrued(r.Context(), req.ToUseCaseInput())
	writeEventResult(w, res, err)
}

// Withdrawal handles POST /events/withdrawals.
func (h *EventHandler) Withdrawal(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawalRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	res, err := h.events.OnWithdrawalRequested(r.Context(), req.ToUseCaseInput(), req.Immediate)
	writeEventResult(w, res, err)
}

// CompleteWithdrawal handles POST /events/withdrawals/{id}/complete.
func (h *EventHandler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	res, err := h.events.OnWithdrawalCompleted(r.Context(), chi.URLParam(r, "id"))
	writeEventResult(w, res, err)
}

// RejectWithdrawal handles POST /events/withdrawals/{id}/reject.
func (h *EventHandler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	res, err := h.events.OnWithdrawalRejected(r.Context(), chi.URLParam(r, "id"))
	writeEventResult(w, res, err)
}
