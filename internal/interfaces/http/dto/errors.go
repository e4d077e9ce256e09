package dto

import (
	"net/http"

	"github.com/bizledger/backend/internal/domain/shared"
)

// Error codes returned by the API. Domain codes pass through unchanged.
const (
	ErrCodeValidation   = shared.CodeValidation
	ErrCodeNotFound     = shared.CodeNotFound
	ErrCodeOverpayment  = shared.CodeOverpayment
	ErrCodeConflict     = shared.CodeConflict
	ErrCodeInvalidState = shared.CodeInvalidState
	ErrCodeUnauthorized = shared.CodeUnauthorized
	ErrCodeForbidden    = shared.CodeForbidden

	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeOverpayment:  http.StatusUnprocessableEntity,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeInvalidState: http.StatusConflict,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
