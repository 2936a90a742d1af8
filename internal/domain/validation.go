package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall   = errors.New("amount below minimum allowed")
	ErrMetadataTooLarge = errors.New("metadata size exceeds limit")
)

// Validation constants
const (
	MaxMetadataSize = 10240           // 10KB
	MaxAmount       = "1000000000000" // 1 trillion
	MinAmount       = "0.01"

	// AmountScale is the number of fractional digits money carries.
	AmountScale = 2
)

// Valid currency codes (ISO 4217). Currency is carried for audit only.
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "NGN": true, "BDT": true, "HKD": true,
}

// ValidateCurrency validates currency code. An empty code is allowed.
func ValidateCurrency(currency string) error {
	if currency == "" {
		return nil
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// HasCentPrecision reports whether d has at most AmountScale fractional digits.
func HasCentPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountScale))
}

// ValidateAmount validates a monetary amount supplied by a caller.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !HasCentPrecision(amount) {
		return ErrInvalidPrecision
	}

	minAmount, _ := decimal.NewFromString(MinAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateReference requires a non-blank identifier.
func ValidateReference(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingReference
	}
	return nil
}

// ValidateMetadata validates metadata size
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("%w: metadata size %d bytes exceeds limit of %d bytes", ErrMetadataTooLarge, size, MaxMetadataSize)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
