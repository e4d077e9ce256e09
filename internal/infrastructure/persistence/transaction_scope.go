package persistence

import (
	"context"

	appbudget "github.com/bizledger/backend/internal/application/budget"
	appfinance "github.com/bizledger/backend/internal/application/finance"
	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/numbering"
	"gorm.io/gorm"
)

// GormLedgerTransactionScope implements the finance TransactionScope using
// GORM transactions. Documents, payments, the linked budget and the number
// counters all share one transaction.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormBudgetTransactionScope implements the budget TransactionScope using
// GORM transactions.
type GormBudgetTransactionScope struct {
	db *gorm.DB
}

// NewGormBudgetTransactionScope creates a new GormBudgetTransactionScope
func NewGormBudgetTransactionScope(db *gorm.DB) *GormBudgetTransactionScope {
	return &GormBudgetTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormBudgetTransactionScope) Execute(ctx context.Context, fn func(repos appbudget.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// DocumentRepo returns the document repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DocumentRepo() finance.PayableDocumentRepository {
	return NewGormPayableDocumentRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// BudgetRepo returns the budget repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BudgetRepo() budget.BudgetEventRepository {
	return NewGormBudgetEventRepository(r.tx)
}

// RevisionRepo returns the revision repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RevisionRepo() budget.BudgetRevisionRepository {
	return NewGormBudgetRevisionRepository(r.tx)
}

// Sequences returns the number allocator scoped to the current transaction.
func (r *gormTransactionalRepositories) Sequences() numbering.Allocator {
	return NewGormSequenceAllocator(r.tx)
}

var (
	_ appfinance.TransactionScope          = (*GormLedgerTransactionScope)(nil)
	_ appbudget.TransactionScope           = (*GormBudgetTransactionScope)(nil)
	_ appfinance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ appbudget.TransactionalRepositories  = (*gormTransactionalRepositories)(nil)
)
