package finance

import (
	"context"

	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/numbering"
)

// TransactionScope provides transactional access to the ledger repositories.
// A payment, the document it settles, the linked budget and the receipt
// counter are all written inside one Execute call, so either all of them
// commit or none do.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within a transaction.
type TransactionalRepositories interface {
	// DocumentRepo returns the payable document repository scoped to the current transaction
	DocumentRepo() finance.PayableDocumentRepository
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() finance.PaymentRepository
	// BudgetRepo returns the budget repository scoped to the current transaction
	BudgetRepo() budget.BudgetEventRepository
	// Sequences returns the number allocator scoped to the current transaction
	Sequences() numbering.Allocator
}

// NoOpTransactionScope runs fn against plain repositories without a real
// transaction. Useful for tests.
type NoOpTransactionScope struct {
	documentRepo finance.PayableDocumentRepository
	paymentRepo  finance.PaymentRepository
	budgetRepo   budget.BudgetEventRepository
	sequences    numbering.Allocator
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	documentRepo finance.PayableDocumentRepository,
	paymentRepo finance.PaymentRepository,
	budgetRepo budget.BudgetEventRepository,
	sequences numbering.Allocator,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		documentRepo: documentRepo,
		paymentRepo:  paymentRepo,
		budgetRepo:   budgetRepo,
		sequences:    sequences,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// DocumentRepo returns the document repository.
func (s *NoOpTransactionScope) DocumentRepo() finance.PayableDocumentRepository {
	return s.documentRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() finance.PaymentRepository {
	return s.paymentRepo
}

// BudgetRepo returns the budget repository.
func (s *NoOpTransactionScope) BudgetRepo() budget.BudgetEventRepository {
	return s.budgetRepo
}

// Sequences returns the number allocator.
func (s *NoOpTransactionScope) Sequences() numbering.Allocator {
	return s.sequences
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
