package finance

import (
	"context"
	"time"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/numbering"
	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, docType finance.DocumentType, id int64) (*finance.PayableDocument, error) {
	args := m.Called(ctx, docType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PayableDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindByIDForUpdate(ctx context.Context, docType finance.DocumentType, id int64) (*finance.PayableDocument, error) {
	args := m.Called(ctx, docType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PayableDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindByPaymentTarget(ctx context.Context, p *finance.Payment) (*finance.PayableDocument, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PayableDocument), args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, d *finance.PayableDocument) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentRepository) SaveWithLock(ctx context.Context, d *finance.PayableDocument) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentRepository) CountByType(ctx context.Context, docType finance.DocumentType) (int64, error) {
	args := m.Called(ctx, docType)
	return args.Get(0).(int64), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *finance.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id int64) (*finance.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*finance.Payment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByDocument(ctx context.Context, docType finance.DocumentType, docID int64) ([]finance.Payment, error) {
	args := m.Called(ctx, docType, docID)
	return args.Get(0).([]finance.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumByDocument(ctx context.Context, docType finance.DocumentType, docID int64) (valueobject.Money, error) {
	args := m.Called(ctx, docType, docID)
	return args.Get(0).(valueobject.Money), args.Error(1)
}

func (m *MockPaymentRepository) CountByDocument(ctx context.Context, docType finance.DocumentType, docID int64) (int64, error) {
	args := m.Called(ctx, docType, docID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SumAdjustmentsFor(ctx context.Context, paymentID int64) (valueobject.Money, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(valueobject.Money), args.Error(1)
}

type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) FindByID(ctx context.Context, id int64) (*budget.BudgetEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.BudgetEvent), args.Error(1)
}

func (m *MockBudgetRepository) FindByIDForUpdate(ctx context.Context, id int64) (*budget.BudgetEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.BudgetEvent), args.Error(1)
}

func (m *MockBudgetRepository) FindAll(ctx context.Context, filter shared.Filter) ([]budget.BudgetEvent, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]budget.BudgetEvent), args.Get(1).(int64), args.Error(2)
}

func (m *MockBudgetRepository) Create(ctx context.Context, b *budget.BudgetEvent) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBudgetRepository) SaveWithLock(ctx context.Context, b *budget.BudgetEvent) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) FindByID(ctx context.Context, id int64) (*partner.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Contact), args.Error(1)
}

func (m *MockContactRepository) Create(ctx context.Context, c *partner.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

type MockAllocator struct {
	mock.Mock
}

func (m *MockAllocator) Next(ctx context.Context, f numbering.Family, yearSuffix string) (int64, error) {
	args := m.Called(ctx, f, yearSuffix)
	return args.Get(0).(int64), args.Error(1)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// =============================================================================
// Fixtures
// =============================================================================

var (
	adminActor      = shared.Actor{ID: "admin-1", Role: shared.RoleAdmin}
	restrictedActor = shared.Actor{ID: "clerk-1", Role: shared.RoleRestricted}
)

func money(s string) valueobject.Money {
	return valueobject.MustParseMoney(s)
}

func newInvoice(id int64, total string) *finance.PayableDocument {
	d, err := finance.NewPayableDocument(finance.DocumentTypeInvoice, 7, money(total), nil, "", "admin-1")
	if err != nil {
		panic(err)
	}
	d.ID = id
	d.DocumentNumber = "INV-00001"
	return d
}

func newPostedInvoice(id int64, total string, budgetID int64) *finance.PayableDocument {
	d := newInvoice(id, total)
	d.BudgetEventID = &budgetID
	d.Status = finance.DocumentStatusPosted
	return d
}

func newBudget(id int64, budgeted, achieved string) *budget.BudgetEvent {
	b, err := budget.NewBudgetEvent("Launch", budget.BudgetTypeIncome, money(budgeted),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), "", "admin-1")
	if err != nil {
		panic(err)
	}
	b.ID = id
	b.AchievedAmount = money(achieved)
	return b
}

type reconcilerFixture struct {
	documents   *MockDocumentRepository
	payments    *MockPaymentRepository
	budgets     *MockBudgetRepository
	sequences   *MockAllocator
	idempotency *MockIdempotencyStore
	publisher   *MockEventPublisher
	reconciler  *Reconciler
}

func newReconcilerFixture() *reconcilerFixture {
	f := &reconcilerFixture{
		documents:   new(MockDocumentRepository),
		payments:    new(MockPaymentRepository),
		budgets:     new(MockBudgetRepository),
		sequences:   new(MockAllocator),
		idempotency: new(MockIdempotencyStore),
		publisher:   new(MockEventPublisher),
	}
	scope := NewNoOpTransactionScope(f.documents, f.payments, f.budgets, f.sequences)
	f.reconciler = NewReconciler(scope, f.documents, f.payments, DefaultReconcilerConfig())
	f.reconciler.SetIdempotencyStore(f.idempotency)
	f.reconciler.SetEventPublisher(f.publisher)
	return f
}
