package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/interfaces/http/dto"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.Success(c, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", resp.Data.(map[string]interface{})["status"])
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/")

	h.Created(c, map[string]int{"id": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", shared.NewValidationError("amount must be positive"), http.StatusBadRequest, "VALIDATION_ERROR", "amount must be positive"},
		{"not found", shared.NewNotFoundError("Document not found"), http.StatusNotFound, "NOT_FOUND", "Document not found"},
		{"overpayment", shared.NewOverpaymentError("too much"), http.StatusUnprocessableEntity, "OVERPAYMENT", "too much"},
		{"conflict", shared.NewConflictError("stale"), http.StatusConflict, "CONFLICT", "stale"},
		{"invalid state", shared.NewInvalidStateError("not posted"), http.StatusConflict, "INVALID_STATE", "not posted"},
		{"forbidden", shared.NewForbiddenError("admins only"), http.StatusForbidden, "FORBIDDEN", "admins only"},
		{"wrapped domain error", fmt.Errorf("recording: %w", shared.NewNotFoundError("Payment not found")), http.StatusNotFound, "NOT_FOUND", "Payment not found"},
		{"unexpected error", errors.New("connection reset by peer"), http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestBaseHandlerHandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.HandleError(c, nil)

	assert.Equal(t, 0, w.Body.Len())
}

func TestBaseHandlerParseID(t *testing.T) {
	tests := []struct {
		param  string
		wantID int64
		wantOK bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run("id="+tt.param, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")
			c.Params = gin.Params{{Key: "id", Value: tt.param}}

			id, ok := h.ParseID(c, "id")

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, w).Error.Code)
			}
		})
	}
}

func TestBaseHandlerParseDocumentType(t *testing.T) {
	h := &BaseHandler{}

	c, _ := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "type", Value: "purchase_bill"}}
	docType, ok := h.ParseDocumentType(c)
	assert.True(t, ok)
	assert.Equal(t, finance.DocumentTypePurchaseBill, docType)

	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "type", Value: "quotation"}}
	_, ok = h.ParseDocumentType(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBaseHandlerActor(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodGet, "/")
	_, ok := h.Actor(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = newTestContext(http.MethodGet, "/")
	c.Set(middleware.ActorKey, shared.Actor{ID: "u-1", Role: shared.RoleAdmin})
	actor, ok := h.Actor(c)
	assert.True(t, ok)
	assert.Equal(t, "u-1", actor.ID)
	assert.True(t, actor.IsAdmin())
}
