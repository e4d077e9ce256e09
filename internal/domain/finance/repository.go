package finance

import (
	"context"

	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// PayableDocumentRepository persists payable documents of every variant
type PayableDocumentRepository interface {
	// FindByID returns shared.ErrNotFound when no document of docType has id
	FindByID(ctx context.Context, docType DocumentType, id int64) (*PayableDocument, error)
	// FindByIDForUpdate loads the document and locks its row until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, docType DocumentType, id int64) (*PayableDocument, error)
	// FindByPaymentTarget loads the document a payment points at
	FindByPaymentTarget(ctx context.Context, p *Payment) (*PayableDocument, error)
	// Create inserts a new document and assigns its ID
	Create(ctx context.Context, d *PayableDocument) error
	// SaveWithLock writes d only if the stored version is d.Version-1,
	// otherwise it returns a conflict error
	SaveWithLock(ctx context.Context, d *PayableDocument) error
	// CountByType counts every document of a variant, used to seed numbering
	CountByType(ctx context.Context, docType DocumentType) (int64, error)
}

// PaymentRepository persists the append-only payment log
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id int64) (*Payment, error)
	// FindByIdempotencyKey returns nil, nil when the key is unknown
	FindByIdempotencyKey(ctx context.Context, key string) (*Payment, error)
	// FindByDocument lists payments and adjustments for a document, oldest first
	FindByDocument(ctx context.Context, docType DocumentType, docID int64) ([]Payment, error)
	// SumByDocument totals every entry, adjustments included
	SumByDocument(ctx context.Context, docType DocumentType, docID int64) (valueobject.Money, error)
	CountByDocument(ctx context.Context, docType DocumentType, docID int64) (int64, error)
	// SumAdjustmentsFor returns the positive magnitude already reversed on a payment
	SumAdjustmentsFor(ctx context.Context, paymentID int64) (valueobject.Money, error)
}
