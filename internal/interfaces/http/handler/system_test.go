package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func() error

func (f pingerFunc) Ping() error { return f() }

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("bizledger", "1.2.3", pingerFunc(func() error { return nil }))
	c, w := newTestContext(http.MethodGet, "/health")

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Database)
	assert.NotEmpty(t, resp.Time)
}

func TestSystemHandler_HealthDatabaseDown(t *testing.T) {
	h := NewSystemHandler("bizledger", "1.2.3", pingerFunc(func() error { return errors.New("connection refused") }))
	c, w := newTestContext(http.MethodGet, "/health")

	h.Health(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "error", resp.Database)
}

func TestSystemHandler_Routes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, nil, http.MethodGet, "/api/v1/system/info", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.restricted(t, http.MethodGet, "/api/v1/system/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := data(t, w)
	assert.Equal(t, "bizledger", info["name"])
	assert.Equal(t, "test", info["version"])
	assert.NotEmpty(t, info["go_version"])
}
