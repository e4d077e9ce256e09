package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	budgetapp "github.com/bizledger/backend/internal/application/budget"
	financeapp "github.com/bizledger/backend/internal/application/finance"
	partnerapp "github.com/bizledger/backend/internal/application/partner"
	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/auth"
	"github.com/bizledger/backend/internal/infrastructure/cache"
	"github.com/bizledger/backend/internal/infrastructure/config"
	"github.com/bizledger/backend/internal/infrastructure/persistence"
	"github.com/bizledger/backend/internal/infrastructure/printing"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
	"github.com/bizledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var (
	adminActor      = shared.Actor{ID: "admin-1", Role: shared.RoleAdmin}
	restrictedActor = shared.Actor{ID: "clerk-7", Role: shared.RoleRestricted}
)

// fakePDF stands in for the chromedp renderer
type fakePDF struct{}

func (fakePDF) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	return &printing.RenderResult{PDFData: []byte("%PDF-1.4 " + req.Title), PageCount: 1}, nil
}

func (fakePDF) Close() error { return nil }

// memoryArchive stands in for the S3 archive
type memoryArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (a *memoryArchive) Put(_ context.Context, key string, body []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = body
	return nil
}

func (a *memoryArchive) PresignGet(_ context.Context, key string) (string, time.Time, error) {
	return "https://archive.test/" + key + "?sig=1", time.Now().Add(15 * time.Minute), nil
}

type testEnv struct {
	engine  *gin.Engine
	db      *persistence.Database
	jwt     *auth.JWTService
	receipt *financeapp.ReceiptService
	archive *memoryArchive
}

type envOption func(*testEnv)

// withReceipts enables PDF rendering and archiving
func withReceipts() envOption {
	return func(e *testEnv) {
		renderer, err := printing.NewReceiptRenderer(fakePDF{})
		if err != nil {
			panic(err)
		}
		e.receipt.SetRenderer(renderer)
		e.receipt.SetArchive(e.archive)
	}
}

// newTestEnv wires the real services over a migrated sqlite database and
// mounts them the way the server does
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     persistence.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	}, persistence.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	docRepo := persistence.NewGormPayableDocumentRepository(db.DB)
	payRepo := persistence.NewGormPaymentRepository(db.DB)
	budgetRepo := persistence.NewGormBudgetEventRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)

	reconciler := financeapp.NewReconciler(ledgerScope, docRepo, payRepo, financeapp.DefaultReconcilerConfig())
	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })
	reconciler.SetIdempotencyStore(idempotency)

	documentService := financeapp.NewDocumentService(ledgerScope, docRepo, contactRepo, budgetRepo)
	budgetService := budgetapp.NewBudgetService(budgetRepo, persistence.NewGormBudgetRevisionRepository(db.DB),
		persistence.NewGormBudgetTransactionScope(db.DB), budget.RevisionAuditOnly)
	receiptService := financeapp.NewReceiptService(payRepo, docRepo, contactRepo)

	env := &testEnv{
		db:      db,
		jwt:     auth.NewJWTService(config.JWTConfig{Secret: "handler-test-secret-32-characters", Issuer: "bizledger"}),
		receipt: receiptService,
		archive: &memoryArchive{objects: map[string][]byte{}},
	}
	for _, opt := range opts {
		opt(env)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	system := NewSystemHandler("bizledger", "test", db)
	engine.GET("/health", system.Health)

	r := router.NewRouter(engine, router.WithMiddleware(middleware.JWTAuth(middleware.JWTMiddlewareConfig{Validator: env.jwt})))
	r.Register(
		BudgetRoutes(NewBudgetHandler(budgetService)),
		ContactRoutes(NewContactHandler(partnerapp.NewContactService(contactRepo))),
		DocumentRoutes(NewDocumentHandler(documentService, reconciler)),
		PaymentRoutes(NewPaymentHandler(reconciler, receiptService)),
		SystemRoutes(system),
	)
	r.Setup()
	env.engine = engine
	return env
}

func (e *testEnv) do(t *testing.T, actor *shared.Actor, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := e.jwt.GenerateToken(*actor, time.Hour)
		require.NoError(t, err)
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) admin(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, &adminActor, method, target, body, headers...)
}

func (e *testEnv) restricted(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, &restrictedActor, method, target, body, headers...)
}

// data decodes a success envelope and returns its data object
func data(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	resp := decodeResponse(t, w)
	require.True(t, resp.Success, w.Body.String())
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %s", w.Body.String())
	return m
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func idOf(t *testing.T, m map[string]any) string {
	t.Helper()
	id, ok := m["id"].(float64)
	require.True(t, ok, "missing id in %v", m)
	return strconv.FormatInt(int64(id), 10)
}

func (e *testEnv) createContact(t *testing.T) string {
	t.Helper()
	w := e.admin(t, http.MethodPost, "/api/v1/contacts", map[string]any{"name": "Sharma Traders", "kind": "customer"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return idOf(t, data(t, w))
}

func (e *testEnv) createBudget(t *testing.T, amount string) string {
	t.Helper()
	w := e.admin(t, http.MethodPost, "/api/v1/budgets", map[string]any{
		"event_name":      "Diwali Sale",
		"type":            "income",
		"budgeted_amount": amount,
		"start_date":      "2025-10-01T00:00:00Z",
		"end_date":        "2025-11-30T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return idOf(t, data(t, w))
}

// postedDocument creates and posts a document and returns its path
func (e *testEnv) postedDocument(t *testing.T, docType, total string, budgetID string) string {
	t.Helper()
	contactID, err := strconv.ParseInt(e.createContact(t), 10, 64)
	require.NoError(t, err)

	body := map[string]any{"counterparty_id": contactID, "total_amount": total}
	if budgetID != "" {
		id, err := strconv.ParseInt(budgetID, 10, 64)
		require.NoError(t, err)
		body["budget_event_id"] = id
	}
	w := e.admin(t, http.MethodPost, "/api/v1/documents/"+docType, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	path := "/api/v1/documents/" + docType + "/" + idOf(t, data(t, w))
	w = e.admin(t, http.MethodPost, path+"/post", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return path
}

func (e *testEnv) pay(t *testing.T, docPath, amount string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	return e.admin(t, http.MethodPost, docPath+"/payments", map[string]any{"amount": amount, "mode": "upi"}, headers...)
}
