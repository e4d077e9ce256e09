package budget

import (
	"context"
	"testing"
	"time"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func revisionOf(b *budget.BudgetEvent, original, revised string) *budget.BudgetRevision {
	rev := &budget.BudgetRevision{
		BudgetID:              b.ID,
		EventName:             b.EventName,
		Type:                  b.Type,
		OriginalBudgetAmount:  money(original),
		RevisedBudgetedAmount: money(revised),
		RevisionReason:        "Scope change",
		CreatedBy:             "admin-1",
	}
	rev.ID = 1
	return rev
}

func TestBudgetService_Create(t *testing.T) {
	req := CreateBudgetRequest{
		EventName:      "Diwali Sale",
		Type:           "income",
		BudgetedAmount: money("50000"),
		StartDate:      time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
	}

	t.Run("admin creates with zero achievement", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)
		f.budgets.On("Create", mock.Anything, mock.AnythingOfType("*budget.BudgetEvent")).
			Run(func(args mock.Arguments) { args.Get(1).(*budget.BudgetEvent).ID = 4 }).
			Return(nil)

		resp, err := svc.Create(context.Background(), adminActor, req)

		require.NoError(t, err)
		assert.Equal(t, int64(4), resp.ID)
		assert.Equal(t, "0.00", resp.AchievedAmount.String())
		assert.Equal(t, "50000.00", resp.AmountToAchieve.String())
		assert.Equal(t, string(budget.StatusSafe), resp.Status)
	})

	t.Run("restricted actor is forbidden", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)

		_, err := svc.Create(context.Background(), restrictedActor, req)

		assert.ErrorIs(t, err, shared.ErrForbidden)
		f.budgets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("end before start", func(t *testing.T) {
		svc, _ := newBudgetFixture(budget.RevisionAuditOnly)
		bad := req
		bad.EndDate = req.StartDate.AddDate(0, 0, -1)

		_, err := svc.Create(context.Background(), adminActor, bad)

		assert.True(t, shared.IsValidation(err))
	})
}

func TestBudgetService_Revise(t *testing.T) {
	t.Run("audit mode snapshots and keeps the live amount", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)
		b := newBudget(9, "4000", "4500")
		var created *budget.BudgetRevision
		f.budgets.On("FindByIDForUpdate", mock.Anything, int64(9)).Return(b, nil)
		f.revisions.On("Create", mock.Anything, mock.AnythingOfType("*budget.BudgetRevision")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*budget.BudgetRevision)
				created.ID = 1
			}).
			Return(nil)
		f.revisions.On("FindLatestByBudget", mock.Anything, int64(9)).Return(revisionOf(b, "4000", "5000"), nil)
		f.revisions.On("CountByBudget", mock.Anything, int64(9)).Return(int64(1), nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := svc.Revise(context.Background(), adminActor, 9,
			ReviseBudgetRequest{RevisedBudgetedAmount: money("5000"), RevisionReason: "Scope change"})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "4000.00", created.OriginalBudgetAmount.String())
		assert.Equal(t, "5000.00", result.Revision.RevisedBudgetedAmount.String())
		assert.Equal(t, "1000.00", result.Revision.Delta.String())
		assert.Equal(t, "4000.00", b.BudgetedAmount.String())
		assert.Equal(t, "4000.00", result.Budget.BudgetedAmount.String())
		assert.Equal(t, "5000.00", result.Budget.EffectiveAmount.String())
		assert.True(t, result.Budget.PercentageAchieved.Equal(decimal.NewFromInt(90)))
		assert.Equal(t, string(budget.StatusWarning), result.Budget.Status)
		f.budgets.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("propagate mode rewrites the live amount", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionPropagate)
		b := newBudget(9, "4000", "0")
		f.budgets.On("FindByIDForUpdate", mock.Anything, int64(9)).Return(b, nil)
		f.revisions.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.budgets.On("SaveWithLock", mock.Anything, b).Return(nil)
		f.revisions.On("FindLatestByBudget", mock.Anything, int64(9)).Return(revisionOf(b, "4000", "5000"), nil)
		f.revisions.On("CountByBudget", mock.Anything, int64(9)).Return(int64(1), nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := svc.Revise(context.Background(), adminActor, 9,
			ReviseBudgetRequest{RevisedBudgetedAmount: money("5000"), RevisionReason: "Scope change"})

		require.NoError(t, err)
		assert.Equal(t, "5000.00", b.BudgetedAmount.String())
		assert.Equal(t, "4000.00", result.Revision.OriginalBudgetAmount.String())
		f.budgets.AssertCalled(t, "SaveWithLock", mock.Anything, b)
	})

	t.Run("unknown budget is a validation error", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)
		f.budgets.On("FindByIDForUpdate", mock.Anything, int64(77)).Return(nil, shared.ErrNotFound)

		_, err := svc.Revise(context.Background(), adminActor, 77,
			ReviseBudgetRequest{RevisedBudgetedAmount: money("5000"), RevisionReason: "Scope change"})

		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
		f.revisions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("empty reason", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)
		f.budgets.On("FindByIDForUpdate", mock.Anything, int64(9)).Return(newBudget(9, "4000", "0"), nil)

		_, err := svc.Revise(context.Background(), adminActor, 9,
			ReviseBudgetRequest{RevisedBudgetedAmount: money("5000"), RevisionReason: "   "})

		assert.True(t, shared.IsValidation(err))
		f.revisions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("restricted actor is forbidden", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)

		_, err := svc.Revise(context.Background(), restrictedActor, 9,
			ReviseBudgetRequest{RevisedBudgetedAmount: money("5000"), RevisionReason: "Scope change"})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		f.budgets.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	})
}

func TestBudgetService_UnknownPropagationFallsBackToAudit(t *testing.T) {
	svc, _ := newBudgetFixture(budget.RevisionPropagation("sometimes"))
	assert.Equal(t, budget.RevisionAuditOnly, svc.Propagation())
}

func TestApplyAchievement(t *testing.T) {
	t.Run("adds a signed delta", func(t *testing.T) {
		repo := new(MockBudgetRepository)
		b := newBudget(9, "1000", "600")
		repo.On("FindByIDForUpdate", mock.Anything, int64(9)).Return(b, nil)
		repo.On("SaveWithLock", mock.Anything, b).Return(nil)

		got, err := ApplyAchievement(context.Background(), repo, 9, money("-100"), "payment:3")

		require.NoError(t, err)
		assert.Equal(t, "500.00", got.AchievedAmount.String())
		assert.Len(t, got.GetDomainEvents(), 1)
		repo.AssertExpectations(t)
	})

	t.Run("zero delta does not write", func(t *testing.T) {
		repo := new(MockBudgetRepository)
		b := newBudget(9, "1000", "600")
		repo.On("FindByIDForUpdate", mock.Anything, int64(9)).Return(b, nil)

		got, err := ApplyAchievement(context.Background(), repo, 9, money("0"), "payment:3")

		require.NoError(t, err)
		assert.Equal(t, "600.00", got.AchievedAmount.String())
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("cannot reverse below zero", func(t *testing.T) {
		repo := new(MockBudgetRepository)
		b := newBudget(9, "1000", "50")
		repo.On("FindByIDForUpdate", mock.Anything, int64(9)).Return(b, nil)

		_, err := ApplyAchievement(context.Background(), repo, 9, money("-100"), "refund")

		assert.True(t, shared.IsValidation(err))
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("unknown budget", func(t *testing.T) {
		repo := new(MockBudgetRepository)
		repo.On("FindByIDForUpdate", mock.Anything, int64(4)).Return(nil, shared.ErrNotFound)

		_, err := ApplyAchievement(context.Background(), repo, 4, money("10"), "payment:1")

		assert.True(t, shared.IsNotFound(err))
	})
}

func TestBudgetService_Get(t *testing.T) {
	t.Run("unknown budget", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)
		f.budgets.On("FindByID", mock.Anything, int64(3)).Return(nil, shared.ErrNotFound)

		_, err := svc.Get(context.Background(), 3)

		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("overshot target goes negative", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)
		b := newBudget(3, "1000", "1250")
		f.budgets.On("FindByID", mock.Anything, int64(3)).Return(b, nil)
		f.revisions.On("FindLatestByBudget", mock.Anything, int64(3)).Return(nil, nil)
		f.revisions.On("CountByBudget", mock.Anything, int64(3)).Return(int64(0), nil)

		resp, err := svc.Get(context.Background(), 3)

		require.NoError(t, err)
		assert.Equal(t, "-250.00", resp.AmountToAchieve.String())
		assert.Equal(t, string(budget.StatusCritical), resp.Status)
		assert.Nil(t, resp.LatestRevision)
	})
}

func TestBudgetService_Update(t *testing.T) {
	svc, f := newBudgetFixture(budget.RevisionAuditOnly)
	b := newBudget(3, "1000", "0")
	f.budgets.On("FindByIDForUpdate", mock.Anything, int64(3)).Return(b, nil)
	f.budgets.On("SaveWithLock", mock.Anything, b).Return(nil)
	f.revisions.On("FindLatestByBudget", mock.Anything, int64(3)).Return(nil, nil)
	f.revisions.On("CountByBudget", mock.Anything, int64(3)).Return(int64(0), nil)

	name := "Holi Sale"
	amount := money("2000")
	resp, err := svc.Update(context.Background(), adminActor, 3, UpdateBudgetRequest{EventName: &name, BudgetedAmount: &amount})

	require.NoError(t, err)
	assert.Equal(t, "Holi Sale", resp.EventName)
	assert.Equal(t, "2000.00", resp.BudgetedAmount.String())
	assert.Equal(t, "0.00", resp.AchievedAmount.String())
}

func TestBudgetService_List(t *testing.T) {
	svc, f := newBudgetFixture(budget.RevisionAuditOnly)
	filter := shared.Filter{Page: 1, PageSize: 20}
	f.budgets.On("FindAll", mock.Anything, filter).
		Return([]budget.BudgetEvent{*newBudget(1, "100", "10"), *newBudget(2, "200", "200")}, int64(2), nil)
	f.revisions.On("FindLatestByBudget", mock.Anything, mock.Anything).Return(nil, nil)
	f.revisions.On("CountByBudget", mock.Anything, mock.Anything).Return(int64(0), nil)

	page, err := svc.List(context.Background(), filter)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, string(budget.StatusCritical), page.Items[1].Status)
}

func TestBudgetService_ListRevisions(t *testing.T) {
	t.Run("oldest first", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)
		b := newBudget(9, "4000", "0")
		first := *revisionOf(b, "4000", "5000")
		second := *revisionOf(b, "4000", "6000")
		second.ID = 2
		f.budgets.On("FindByID", mock.Anything, int64(9)).Return(b, nil)
		f.revisions.On("FindByBudget", mock.Anything, int64(9)).Return([]budget.BudgetRevision{first, second}, nil)

		revs, err := svc.ListRevisions(context.Background(), 9)

		require.NoError(t, err)
		require.Len(t, revs, 2)
		assert.Equal(t, "2000.00", revs[1].Delta.String())
	})

	t.Run("no revisions yet", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)
		f.budgets.On("FindByID", mock.Anything, int64(9)).Return(newBudget(9, "4000", "0"), nil)
		f.revisions.On("FindLatestByBudget", mock.Anything, int64(9)).Return(nil, nil)

		latest, err := svc.LatestRevision(context.Background(), 9)

		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("unknown budget", func(t *testing.T) {
		svc, f := newBudgetFixture(budget.RevisionAuditOnly)
		f.budgets.On("FindByID", mock.Anything, int64(9)).Return(nil, shared.ErrNotFound)

		_, err := svc.ListRevisions(context.Background(), 9)

		assert.True(t, shared.IsNotFound(err))
	})
}
