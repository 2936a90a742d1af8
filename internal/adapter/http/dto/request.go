package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/fundledger/internal/domain"
	"github.com/iho/fundledger/internal/usecase"
)

// MembershipPaymentRequest reports a confirmed membership fee.
type MembershipPaymentRequest struct {
	PaymentID string          `json:"payment_id" validate:"required,max=128"`
	UserID    string          `json:"user_id" validate:"max=128"`
	Currency  string          `json:"currency" validate:"omitempty,len=3,uppercase"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
}

// ToUseCaseInput converts to use case input.
func (r *MembershipPaymentRequest) ToUseCaseInput() usecase.MembershipPaymentInput {
	return usecase.MembershipPaymentInput{
		PaymentID: r.PaymentID,
		UserID:    r.UserID,
		Currency:  r.Currency,
		Amount:    r.Amount,
	}
}

// PrizeClaimRequest reports a claimed prize.
type PrizeClaimRequest struct {
	PrizeID  string          `json:"prize_id" validate:"required,max=128"`
	DrawID   string          `json:"draw_id" validate:"max=128"`
	WinnerID string          `json:"winner_id" validate:"required,max=128"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
}

// ToUseCaseInput converts to use case input.
func (r *PrizeClaimRequest) ToUseCaseInput() usecase.PrizePayoutInput {
	return usecase.PrizePayoutInput{
		PrizeID:  r.PrizeID,
		DrawID:   r.DrawID,
		WinnerID: r.WinnerID,
		Amount:   r.Amount,
	}
}

// PrizeExpirationRequest reports an unclaimed prize being reallocated.
type PrizeExpirationRequest struct {
	PrizeID          string          `json:"prize_id" validate:"required,max=128"`
	DrawID           string          `json:"draw_id" validate:"max=128"`
	OriginalWinnerID string          `json:"original_winner_id" validate:"required,max=128"`
	NewRecipientID   string          `json:"new_recipient_id" validate:"max=128"`
	Amount           decimal.Decimal `json:"amount" validate:"gt=0"`
}

// ToUseCaseInput converts to use case input.
func (r *PrizeExpirationRequest) ToUseCaseInput() usecase.CommunitySupportInput {
	return usecase.CommunitySupportInput{
		PrizeID:          r.PrizeID,
		DrawID:           r.DrawID,
		OriginalWinnerID: r.OriginalWinnerID,
		NewRecipientID:   r.NewRecipientID,
		Amount:           r.Amount,
	}
}

// BonusRequest reports an accrued referral or tier bonus.
type BonusRequest struct {
	ReferenceID string          `json:"reference_id" validate:"required,max=128"`
	UserID      string          `json:"user_id" validate:"required,max=128"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
}

// ToUseCaseInput converts to use case input.
func (r *BonusRequest) ToUseCaseInput() usecase.BonusInput {
	return usecase.BonusInput{
		ReferenceID: r.ReferenceID,
		UserID:      r.UserID,
		Amount:      r.Amount,
	}
}

// WithdrawalRequest reports a member withdrawal. Immediate withdrawals skip
// the pending state.
type WithdrawalRequest struct {
	WithdrawalID string          `json:"withdrawal_id" validate:"required,max=128"`
	UserID       string          `json:"user_id" validate:"required,max=128"`
	Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
	Immediate    bool            `json:"immediate"`
}

// ToUseCaseInput converts to use case input.
func (r *WithdrawalRequest) ToUseCaseInput() usecase.WithdrawalInput {
	return usecase.WithdrawalInput{
		WithdrawalID: r.WithdrawalID,
		UserID:       r.UserID,
		Amount:       r.Amount,
	}
}

// PrizeRequest is one prize of a draw.
type PrizeRequest struct {
	Name   string          `json:"name" validate:"required,max=128"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// CreateDrawRequest asks to reserve the prizes of a draw.
type CreateDrawRequest struct {
	DrawID  string         `json:"draw_id" validate:"required,max=128"`
	ActorID string         `json:"actor_id" validate:"max=128"`
	Prizes  []PrizeRequest `json:"prizes" validate:"required,min=1,max=100,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateDrawRequest) ToUseCaseInput() usecase.DrawRequest {
	prizes := make([]domain.Prize, len(r.Prizes))
	for i, p := range r.Prizes {
		prizes[i] = domain.Prize{Name: p.Name, Amount: p.Amount}
	}
	return usecase.DrawRequest{
		DrawID:  r.DrawID,
		ActorID: r.ActorID,
		Prizes:  prizes,
	}
}

// CheckDrawRequest asks whether amount could be reserved now.
type CheckDrawRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}
