package budget

import (
	"context"
	"time"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

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
	return m.Called(ctx, b).Error(0)
}

func (m *MockBudgetRepository) SaveWithLock(ctx context.Context, b *budget.BudgetEvent) error {
	return m.Called(ctx, b).Error(0)
}

type MockRevisionRepository struct {
	mock.Mock
}

func (m *MockRevisionRepository) Create(ctx context.Context, rev *budget.BudgetRevision) error {
	return m.Called(ctx, rev).Error(0)
}

func (m *MockRevisionRepository) FindLatestByBudget(ctx context.Context, budgetID int64) (*budget.BudgetRevision, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*budget.BudgetRevision), args.Error(1)
}

func (m *MockRevisionRepository) FindByBudget(ctx context.Context, budgetID int64) ([]budget.BudgetRevision, error) {
	args := m.Called(ctx, budgetID)
	return args.Get(0).([]budget.BudgetRevision), args.Error(1)
}

func (m *MockRevisionRepository) CountByBudget(ctx context.Context, budgetID int64) (int64, error) {
	args := m.Called(ctx, budgetID)
	return args.Get(0).(int64), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

var (
	adminActor      = shared.Actor{ID: "admin-1", Role: shared.RoleAdmin}
	restrictedActor = shared.Actor{ID: "clerk-1", Role: shared.RoleRestricted}
)

func money(s string) valueobject.Money {
	return valueobject.MustParseMoney(s)
}

func newBudget(id int64, budgeted, achieved string) *budget.BudgetEvent {
	b, err := budget.NewBudgetEvent("Diwali Sale", budget.BudgetTypeIncome, money(budgeted),
		time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), "", "admin-1")
	if err != nil {
		panic(err)
	}
	b.ID = id
	b.AchievedAmount = money(achieved)
	return b
}

type budgetFixture struct {
	budgets   *MockBudgetRepository
	revisions *MockRevisionRepository
	publisher *MockEventPublisher
}

func newBudgetFixture(propagation budget.RevisionPropagation) (*BudgetService, *budgetFixture) {
	f := &budgetFixture{
		budgets:   new(MockBudgetRepository),
		revisions: new(MockRevisionRepository),
		publisher: new(MockEventPublisher),
	}
	svc := NewBudgetService(f.budgets, f.revisions, NewNoOpTransactionScope(f.budgets, f.revisions), propagation)
	svc.SetEventPublisher(f.publisher)
	return svc, f
}
