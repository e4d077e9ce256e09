package persistence

import (
	"context"
	"fmt"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/numbering"
	"github.com/bizledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const (
	incrementSequenceSQL = `UPDATE document_sequences SET last_value = last_value + 1 ` +
		`WHERE family = ? AND scope = ? RETURNING last_value`
	upsertSequenceSQL = `INSERT INTO document_sequences (family, scope, last_value) VALUES (?, ?, ?) ` +
		`ON CONFLICT (family, scope) DO UPDATE SET last_value = document_sequences.last_value + 1 ` +
		`RETURNING last_value`
)

// GormSequenceAllocator implements numbering.Allocator on the
// document_sequences table. The counter row is incremented in a single
// statement, so two transactions can never read the same value; the row lock
// it takes is held until the caller's transaction ends.
//
// A missing counter row is seeded from the rows that already carry numbers,
// so databases that predate the table continue where they left off.
type GormSequenceAllocator struct {
	db *gorm.DB
}

// NewGormSequenceAllocator creates a new GormSequenceAllocator
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

// Next returns the next value for family f. yearSuffix is only used by
// year-scoped families.
func (a *GormSequenceAllocator) Next(ctx context.Context, f numbering.Family, yearSuffix string) (int64, error) {
	if !f.IsValid() {
		return 0, fmt.Errorf("unknown document family %q", f)
	}
	scope := numbering.Scope(f, yearSuffix)
	if f.YearScoped() && len(scope) != 2 {
		return 0, fmt.Errorf("family %s requires a two-digit year suffix, got %q", f, yearSuffix)
	}
	db := a.db.WithContext(ctx)

	var value int64
	result := db.Raw(incrementSequenceSQL, string(f), scope).Scan(&value)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to advance %s sequence: %w", f, result.Error)
	}
	if result.RowsAffected > 0 {
		return value, nil
	}

	seed, err := a.seed(db, f, scope)
	if err != nil {
		return 0, fmt.Errorf("failed to seed %s sequence: %w", f, err)
	}
	if err := db.Raw(upsertSequenceSQL, string(f), scope, seed).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("failed to create %s sequence: %w", f, err)
	}
	return value, nil
}

// seed returns the first value for a fresh counter: one past the number of
// rows that already belong to the family and scope.
func (a *GormSequenceAllocator) seed(db *gorm.DB, f numbering.Family, scope string) (int64, error) {
	var count int64
	var err error
	if f == numbering.FamilyReceipt {
		err = db.Model(&models.PaymentModel{}).Where("receipt_year = ?", scope).Count(&count).Error
	} else {
		err = db.Model(&models.PayableDocumentModel{}).
			Where("document_type = ?", documentTypeFor(f)).Count(&count).Error
	}
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

func documentTypeFor(f numbering.Family) finance.DocumentType {
	switch f {
	case numbering.FamilySaleOrder:
		return finance.DocumentTypeSaleOrder
	case numbering.FamilyPurchaseBill:
		return finance.DocumentTypePurchaseBill
	default:
		return finance.DocumentTypeInvoice
	}
}

var _ numbering.Allocator = (*GormSequenceAllocator)(nil)
