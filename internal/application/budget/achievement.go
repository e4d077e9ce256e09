package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// ApplyAchievement locks budget id through repo, adds delta to its achieved
// amount and saves it. repo must be scoped to the caller's transaction so the
// change commits or rolls back with whatever triggered it. The updated budget
// is returned with its pending domain events; a zero delta returns the budget
// unchanged without writing.
func ApplyAchievement(
	ctx context.Context,
	repo budget.BudgetEventRepository,
	id int64,
	delta valueobject.Money,
	source string,
) (*budget.BudgetEvent, error) {
	b, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Budget event %d not found", id)).WithCause(err)
		}
		return nil, err
	}
	if delta.IsZero() {
		return b, nil
	}
	if err := b.RecordAchievement(delta, source); err != nil {
		return nil, err
	}
	if err := repo.SaveWithLock(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
