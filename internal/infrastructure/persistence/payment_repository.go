package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/bizledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements finance.PaymentRepository using GORM.
// Payments are append-only; there is no update or delete.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create appends a payment and assigns its ID. A duplicate idempotency key
// surfaces as a conflict.
func (r *GormPaymentRepository) Create(ctx context.Context, p *finance.Payment) error {
	model := models.PaymentModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewConflictError("A payment with this idempotency key or receipt number already exists").WithCause(err)
		}
		return err
	}
	p.ID = model.ID
	return nil
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id int64) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey returns nil, nil when no payment carries key
func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*finance.Payment, error) {
	var model models.PaymentModel
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDocument lists every entry against a document, oldest first
func (r *GormPaymentRepository) FindByDocument(ctx context.Context, docType finance.DocumentType, docID int64) ([]finance.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("target_document_type = ? AND target_document_id = ?", docType, docID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]finance.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// SumByDocument totals every entry against a document. Amounts are summed
// as decimals in Go so that no engine float arithmetic is involved.
func (r *GormPaymentRepository) SumByDocument(ctx context.Context, docType finance.DocumentType, docID int64) (valueobject.Money, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Select("amount").
		Where("target_document_type = ? AND target_document_id = ?", docType, docID).
		Find(&rows).Error; err != nil {
		return valueobject.Zero(), err
	}
	return sumAmounts(rows), nil
}

// CountByDocument counts entries against a document
func (r *GormPaymentRepository) CountByDocument(ctx context.Context, docType finance.DocumentType, docID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("target_document_type = ? AND target_document_id = ?", docType, docID).
		Count(&count).Error
	return count, err
}

// SumAdjustmentsFor returns how much of a payment has already been reversed,
// as a positive amount
func (r *GormPaymentRepository) SumAdjustmentsFor(ctx context.Context, paymentID int64) (valueobject.Money, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Select("amount").
		Where("adjusts_payment_id = ?", paymentID).
		Find(&rows).Error; err != nil {
		return valueobject.Zero(), err
	}
	return sumAmounts(rows).Abs(), nil
}

func sumAmounts(rows []models.PaymentModel) valueobject.Money {
	total := valueobject.Zero()
	for i := range rows {
		total = total.Add(rows[i].Amount)
	}
	return total
}

var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)
