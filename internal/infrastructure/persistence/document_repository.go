package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPayableDocumentRepository implements finance.PayableDocumentRepository using GORM
type GormPayableDocumentRepository struct {
	db *gorm.DB
}

// NewGormPayableDocumentRepository creates a new GormPayableDocumentRepository
func NewGormPayableDocumentRepository(db *gorm.DB) *GormPayableDocumentRepository {
	return &GormPayableDocumentRepository{db: db}
}

// FindByID finds a document of the given variant
func (r *GormPayableDocumentRepository) FindByID(ctx context.Context, docType finance.DocumentType, id int64) (*finance.PayableDocument, error) {
	return r.find(r.db.WithContext(ctx), docType, id)
}

// FindByIDForUpdate finds a document and locks its row
func (r *GormPayableDocumentRepository) FindByIDForUpdate(ctx context.Context, docType finance.DocumentType, id int64) (*finance.PayableDocument, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), docType, id)
}

// FindByPaymentTarget loads the document a payment was recorded against
func (r *GormPayableDocumentRepository) FindByPaymentTarget(ctx context.Context, p *finance.Payment) (*finance.PayableDocument, error) {
	return r.FindByID(ctx, p.TargetDocumentType, p.TargetDocumentID)
}

func (r *GormPayableDocumentRepository) find(db *gorm.DB, docType finance.DocumentType, id int64) (*finance.PayableDocument, error) {
	var model models.PayableDocumentModel
	if err := db.Where("id = ? AND document_type = ?", id, docType).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new document and assigns its ID
func (r *GormPayableDocumentRepository) Create(ctx context.Context, d *finance.PayableDocument) error {
	model := models.PayableDocumentModelFromDomain(d)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewConflictError("Document number " + d.DocumentNumber + " is already taken").WithCause(err)
		}
		return err
	}
	d.ID = model.ID
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormPayableDocumentRepository) SaveWithLock(ctx context.Context, d *finance.PayableDocument) error {
	var current int
	result := r.db.WithContext(ctx).Model(&models.PayableDocumentModel{}).
		Select("version").Where("id = ?", d.ID).Scan(&current)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	if current != d.Version-1 {
		return shared.NewConflictError(d.Label() + " was modified by another transaction")
	}

	result = r.db.WithContext(ctx).Model(&models.PayableDocumentModel{}).
		Where("id = ? AND version = ?", d.ID, d.Version-1).
		Updates(map[string]any{
			"total_paid":     d.TotalPaid,
			"status":         d.Status,
			"payment_status": d.PaymentStatus,
			"notes":          d.Notes,
			"posted_at":      d.PostedAt,
			"cancelled_at":   d.CancelledAt,
			"version":        d.Version,
			"updated_at":     d.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError(d.Label() + " was modified by another transaction")
	}
	return nil
}

// CountByType counts every document of a variant, cancelled ones included
func (r *GormPayableDocumentRepository) CountByType(ctx context.Context, docType finance.DocumentType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PayableDocumentModel{}).
		Where("document_type = ?", docType).Count(&count).Error
	return count, err
}

var _ finance.PayableDocumentRepository = (*GormPayableDocumentRepository)(nil)
