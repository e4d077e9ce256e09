package budget

import (
	"context"

	"github.com/bizledger/backend/internal/domain/shared"
)

// BudgetEventRepository persists BudgetEvent aggregates
type BudgetEventRepository interface {
	// FindByID returns shared.ErrNotFound for an unknown id
	FindByID(ctx context.Context, id int64) (*BudgetEvent, error)
	// FindByIDForUpdate loads the budget and locks its row until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id int64) (*BudgetEvent, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]BudgetEvent, int64, error)
	// Create inserts a new budget and assigns its ID
	Create(ctx context.Context, b *BudgetEvent) error
	// SaveWithLock writes b only if the stored version is b.Version-1,
	// otherwise it returns a conflict error
	SaveWithLock(ctx context.Context, b *BudgetEvent) error
}

// BudgetRevisionRepository persists the append-only revision history
type BudgetRevisionRepository interface {
	Create(ctx context.Context, rev *BudgetRevision) error
	// FindLatestByBudget returns nil, nil when the budget has no revisions
	FindLatestByBudget(ctx context.Context, budgetID int64) (*BudgetRevision, error)
	// FindByBudget returns revisions ordered by created_at ascending
	FindByBudget(ctx context.Context, budgetID int64) ([]BudgetRevision, error)
	CountByBudget(ctx context.Context, budgetID int64) (int64, error)
}
