package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/bizledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationProbe struct {
	Amount   valueobject.Money  `json:"amount" binding:"money_positive"`
	Target   valueobject.Money  `json:"target" binding:"money_nonnegative"`
	Optional *valueobject.Money `json:"optional" binding:"omitempty,money_positive"`
	Type     string             `json:"type" binding:"required,budget_type"`
	Mode     string             `json:"mode" binding:"required,payment_mode"`
	Name     string             `json:"name" binding:"max=5"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req validationProbe
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func postProbe(t *testing.T, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newValidationRouter().ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func fieldsOf(resp dto.Response) map[string]string {
	out := make(map[string]string)
	if resp.Error == nil {
		return out
	}
	for _, d := range resp.Error.Details {
		out[d.Field] = d.Message
	}
	return out
}

func TestValidator_AcceptsValidInput(t *testing.T) {
	w, resp := postProbe(t, `{"amount":"250.50","target":"0","optional":"1","type":"income","mode":"upi","name":"ok"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestValidator_LedgerTags(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		message string
	}{
		{"zero amount", `{"amount":"0","target":"0","type":"income","mode":"upi"}`, "amount", "Amount must be greater than zero"},
		{"missing amount", `{"target":"0","type":"income","mode":"upi"}`, "amount", "Amount must be greater than zero"},
		{"negative target", `{"amount":"1","target":"-5","type":"income","mode":"upi"}`, "target", "Amount cannot be negative"},
		{"negative optional", `{"amount":"1","target":"0","optional":"-1","type":"income","mode":"upi"}`, "optional", "Amount must be greater than zero"},
		{"unknown budget type", `{"amount":"1","target":"0","type":"profit","mode":"upi"}`, "type", "Must be one of: income expense"},
		{"unknown mode", `{"amount":"1","target":"0","type":"expense","mode":"barter"}`, "mode", "Must be one of: cash bank_transfer check upi card gateway"},
		{"long name", `{"amount":"1","target":"0","type":"expense","mode":"cash","name":"toolong"}`, "name", "Must be at most 5 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := postProbe(t, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.Equal(t, tt.message, fieldsOf(resp)[tt.field])
		})
	}
}

func TestValidator_MalformedAmount(t *testing.T) {
	w, resp := postProbe(t, `{"amount":"1.005","target":"0","type":"income","mode":"upi"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Invalid request body")
}
