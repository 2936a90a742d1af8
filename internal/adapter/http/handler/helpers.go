package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/fundledger/internal/adapter/http/dto"
	"github.com/iho/fundledger/internal/domain"
)

// maxBodyBytes caps inbound event payloads.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks for it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// decodeAndValidate reads a JSON body into dst and validates it. On
// failure it writes a 400 and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *dto.ValidationHelper, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	if err := v.ValidateStruct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Message: "one or more fields are invalid",
			Details: dto.ValidationDetails(err),
		})
		return false
	}
	return true
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnbalancedTransaction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInsufficientRestrictedFunds),
		errors.Is(err, domain.ErrDuplicateTransaction),
		errors.Is(err, domain.ErrWithdrawalNotPending),
		errors.Is(err, domain.ErrReservationNotActive),
		errors.Is(err, domain.ErrReservationExceeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorageWrite):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPrecision),
		errors.Is(err, domain.ErrInvalidSplit),
		errors.Is(err, domain.ErrTooFewEntries),
		errors.Is(err, domain.ErrInvalidEntry),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrMissingReference),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrAmountTooSmall),
		errors.Is(err, domain.ErrMetadataTooLarge):
		return http.StatusBadRequest
	default:
		// Unknown accounts and negative restricted balances are configuration
		// or integrity faults, not caller errors.
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
