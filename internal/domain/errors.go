package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Chart errors
	ErrUnknownAccount = errors.New("unknown account")
	ErrInvalidChart   = errors.New("invalid chart of accounts")

	// Entry and transaction errors
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidPrecision      = errors.New("amount has more than 2 decimal places")
	ErrInvalidEntry          = errors.New("entry must have exactly one non-zero side")
	ErrTooFewEntries         = errors.New("transaction requires at least two entries")
	ErrUnbalancedTransaction = errors.New("transaction debits do not equal credits")
	ErrDuplicateTransaction  = errors.New("transaction already recorded for reference")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrMissingReference      = errors.New("reference id is required")
	ErrInvalidSplit          = errors.New("income and pool percentages must sum to 100")
	ErrWithdrawalNotPending  = errors.New("withdrawal is not pending")

	// Restricted fund errors
	ErrInsufficientRestrictedFunds = errors.New("insufficient restricted funds")
	ErrNegativeRestrictedBalance   = errors.New("restricted fund balance is negative")
	ErrNoRestrictedAccount         = errors.New("chart has no restricted account")
	ErrReservationNotFound         = errors.New("reservation not found")
	ErrReservationNotActive        = errors.New("reservation is not active")
	ErrReservationExceeded         = errors.New("amount exceeds reservation remaining")

	// Storage errors
	ErrStorageWrite = errors.New("storage write failed")
)

// UnknownAccountError is returned when an account code is not in the chart.
type UnknownAccountError struct {
	Code string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %q", e.Code)
}

func (e *UnknownAccountError) Is(target error) bool {
	return target == ErrUnknownAccount
}

// UnbalancedTransactionError carries the totals of a rejected transaction.
type UnbalancedTransactionError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("unbalanced transaction: debits=%s credits=%s", e.Debits.StringFixed(2), e.Credits.StringFixed(2))
}

func (e *UnbalancedTransactionError) Is(target error) bool {
	return target == ErrUnbalancedTransaction
}

// InsufficientRestrictedFundsError is returned when a debit of the
// restricted account would exceed its available balance.
type InsufficientRestrictedFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientRestrictedFundsError) Error() string {
	return fmt.Sprintf("insufficient restricted funds: required=%s available=%s shortfall=%s",
		e.Required.StringFixed(2), e.Available.StringFixed(2), e.Shortfall.StringFixed(2))
}

func (e *InsufficientRestrictedFundsError) Is(target error) bool {
	return target == ErrInsufficientRestrictedFunds
}

// NegativeRestrictedBalanceError reports a corrupted restricted balance.
type NegativeRestrictedBalanceError struct {
	AccountCode string
	Balance     decimal.Decimal
}

func (e *NegativeRestrictedBalanceError) Error() string {
	return fmt.Sprintf("restricted account %s has negative balance %s", e.AccountCode, e.Balance.StringFixed(2))
}

func (e *NegativeRestrictedBalanceError) Is(target error) bool {
	return target == ErrNegativeRestrictedBalance
}

// StorageWriteError wraps a failed atomic write. Nothing was persisted.
type StorageWriteError struct {
	Op  string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write failed during %s: %v", e.Op, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

func (e *StorageWriteError) Is(target error) bool {
	return target == ErrStorageWrite
}
