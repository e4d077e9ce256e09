package budget

import (
	"context"

	"github.com/bizledger/backend/internal/domain/budget"
)

// TransactionScope provides transactional access to budget repositories.
// All repository operations inside Execute commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to budget repositories within a transaction.
type TransactionalRepositories interface {
	// BudgetRepo returns the budget repository scoped to the current transaction
	BudgetRepo() budget.BudgetEventRepository
	// RevisionRepo returns the revision repository scoped to the current transaction
	RevisionRepo() budget.BudgetRevisionRepository
}

// NoOpTransactionScope runs fn against plain repositories without a real
// transaction. Useful for tests.
type NoOpTransactionScope struct {
	budgetRepo   budget.BudgetEventRepository
	revisionRepo budget.BudgetRevisionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(budgetRepo budget.BudgetEventRepository, revisionRepo budget.BudgetRevisionRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{budgetRepo: budgetRepo, revisionRepo: revisionRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BudgetRepo returns the budget repository.
func (s *NoOpTransactionScope) BudgetRepo() budget.BudgetEventRepository {
	return s.budgetRepo
}

// RevisionRepo returns the revision repository.
func (s *NoOpTransactionScope) RevisionRepo() budget.BudgetRevisionRepository {
	return s.revisionRepo
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
