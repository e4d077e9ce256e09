package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeOverpayment, http.StatusUnprocessableEntity},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusConflict},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeOverpayment, "Payment exceeds the outstanding balance", "req-1")

	body, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "Payment exceeds the outstanding balance", decoded["message"])
	errInfo := decoded["error"].(map[string]any)
	assert.Equal(t, "OVERPAYMENT", errInfo["code"])
	assert.Equal(t, "req-1", errInfo["request_id"])
	assert.NotContains(t, decoded, "data")
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "amount", Message: "Must be greater than zero"}}

	resp := NewValidationErrorResponse("Request validation failed", "req-2", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, details, resp.Error.Details)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
	}{
		{"exact pages", 40, 20, 2},
		{"partial last page", 41, 20, 3},
		{"empty", 0, 20, 0},
		{"zero page size falls back", 25, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]int{}, tt.total, 1, tt.pageSize)
			require.NotNil(t, resp.Meta)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.wantPages, resp.Meta.TotalPages)
		})
	}
}

func TestListRequestFilter(t *testing.T) {
	req := DefaultListRequest()
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, "created_at", req.OrderBy)

	req.Search = "launch"
	req.PageSize = 50
	f := req.Filter()
	assert.Equal(t, 50, f.Limit())
	assert.Equal(t, "launch", f.Search)
	assert.Equal(t, "desc", f.OrderDir)
	require.NotNil(t, f.Filters)
	assert.Empty(t, f.Where("type"))
}
