package models

import (
	"time"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// PayableDocumentModel is the persistence model for sale orders, purchase
// bills and invoices. The variant is stored in DocumentType.
type PayableDocumentModel struct {
	AggregateModel
	DocumentType   finance.DocumentType   `gorm:"type:varchar(20);not null;uniqueIndex:idx_payable_documents_type_number,priority:1"`
	DocumentNumber string                 `gorm:"type:varchar(30);not null;uniqueIndex:idx_payable_documents_type_number,priority:2"`
	CounterpartyID int64                  `gorm:"not null;index"`
	TotalAmount    valueobject.Money      `gorm:"type:decimal(18,2);not null"`
	TotalPaid      valueobject.Money      `gorm:"type:decimal(18,2);not null"`
	Status         finance.DocumentStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	PaymentStatus  finance.PaymentStatus  `gorm:"type:varchar(20);not null;default:'not_paid';index"`
	BudgetEventID  *int64                 `gorm:"index"`
	Notes          string                 `gorm:"type:text"`
	CreatedBy      string                 `gorm:"type:varchar(100)"`
	PostedAt       *time.Time
	CancelledAt    *time.Time
}

// TableName returns the table name for GORM
func (PayableDocumentModel) TableName() string {
	return "payable_documents"
}

// ToDomain converts the persistence model to a domain PayableDocument.
func (m *PayableDocumentModel) ToDomain() *finance.PayableDocument {
	return &finance.PayableDocument{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DocumentType:      m.DocumentType,
		DocumentNumber:    m.DocumentNumber,
		CounterpartyID:    m.CounterpartyID,
		TotalAmount:       m.TotalAmount,
		TotalPaid:         m.TotalPaid,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		BudgetEventID:     m.BudgetEventID,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		PostedAt:          m.PostedAt,
		CancelledAt:       m.CancelledAt,
	}
}

// PayableDocumentModelFromDomain creates a persistence model from a domain PayableDocument.
func PayableDocumentModelFromDomain(d *finance.PayableDocument) *PayableDocumentModel {
	m := &PayableDocumentModel{
		DocumentType:   d.DocumentType,
		DocumentNumber: d.DocumentNumber,
		CounterpartyID: d.CounterpartyID,
		TotalAmount:    d.TotalAmount,
		TotalPaid:      d.TotalPaid,
		Status:         d.Status,
		PaymentStatus:  d.PaymentStatus,
		BudgetEventID:  d.BudgetEventID,
		Notes:          d.Notes,
		CreatedBy:      d.CreatedBy,
		PostedAt:       d.PostedAt,
		CancelledAt:    d.CancelledAt,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}

// PaymentModel is the persistence model for the append-only payment log.
// IdempotencyKey is nullable so that keyless payments never collide on the
// unique index.
type PaymentModel struct {
	BaseModel
	TargetDocumentType finance.DocumentType `gorm:"type:varchar(20);not null;index:idx_payments_target,priority:1"`
	TargetDocumentID   int64                `gorm:"not null;index:idx_payments_target,priority:2"`
	Kind               finance.PaymentKind  `gorm:"type:varchar(20);not null;default:'payment'"`
	Amount             valueobject.Money    `gorm:"type:decimal(18,2);not null"`
	PaymentDate        time.Time            `gorm:"not null"`
	Mode               finance.PaymentMode  `gorm:"type:varchar(20);not null"`
	ReferenceNumber    string               `gorm:"type:varchar(100)"`
	Notes              string               `gorm:"type:text"`
	IdempotencyKey     *string              `gorm:"type:varchar(128);uniqueIndex"`
	AdjustsPaymentID   *int64               `gorm:"index"`
	ReceiptYear        string               `gorm:"type:varchar(2);not null;uniqueIndex:idx_payments_receipt,priority:1"`
	ReceiptSequence    int64                `gorm:"not null;uniqueIndex:idx_payments_receipt,priority:2"`
	CreatedBy          string               `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		BaseEntity:         m.BaseModel.ToDomain(),
		TargetDocumentType: m.TargetDocumentType,
		TargetDocumentID:   m.TargetDocumentID,
		Kind:               m.Kind,
		Amount:             m.Amount,
		PaymentDate:        m.PaymentDate,
		Mode:               m.Mode,
		ReferenceNumber:    m.ReferenceNumber,
		Notes:              m.Notes,
		IdempotencyKey:     m.IdempotencyKey,
		AdjustsPaymentID:   m.AdjustsPaymentID,
		ReceiptYear:        m.ReceiptYear,
		ReceiptSequence:    m.ReceiptSequence,
		CreatedBy:          m.CreatedBy,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment.
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{
		TargetDocumentType: p.TargetDocumentType,
		TargetDocumentID:   p.TargetDocumentID,
		Kind:               p.Kind,
		Amount:             p.Amount,
		PaymentDate:        p.PaymentDate,
		Mode:               p.Mode,
		ReferenceNumber:    p.ReferenceNumber,
		Notes:              p.Notes,
		IdempotencyKey:     p.IdempotencyKey,
		AdjustsPaymentID:   p.AdjustsPaymentID,
		ReceiptYear:        p.ReceiptYear,
		ReceiptSequence:    p.ReceiptSequence,
		CreatedBy:          p.CreatedBy,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
