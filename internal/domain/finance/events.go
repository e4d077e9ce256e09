package finance

import (
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

const (
	EventTypePaymentRecorded   = "PaymentRecorded"
	EventTypePaymentAdjusted   = "PaymentAdjusted"
	EventTypeDocumentPosted    = "DocumentPosted"
	EventTypeDocumentCancelled = "DocumentCancelled"

	aggregateTypeDocument = "PayableDocument"
)

// PaymentRecordedEvent is raised after a payment commits
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID      int64             `json:"payment_id"`
	DocumentType   DocumentType      `json:"document_type"`
	DocumentID     int64             `json:"document_id"`
	DocumentNumber string            `json:"document_number"`
	Amount         valueobject.Money `json:"amount"`
	Mode           PaymentMode       `json:"mode"`
	ReceiptNumber  string            `json:"receipt_number"`
	TotalPaid      valueobject.Money `json:"total_paid"`
	PaymentStatus  PaymentStatus     `json:"payment_status"`
	BudgetEventID  *int64            `json:"budget_event_id,omitempty"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(d *PayableDocument, p *Payment) *PaymentRecordedEvent {
	eventType := EventTypePaymentRecorded
	if p.IsAdjustment() {
		eventType = EventTypePaymentAdjusted
	}
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateTypeDocument, d.ID),
		PaymentID:       p.ID,
		DocumentType:    d.DocumentType,
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Amount:          p.Amount,
		Mode:            p.Mode,
		ReceiptNumber:   p.ReceiptNumber(),
		TotalPaid:       d.TotalPaid,
		PaymentStatus:   d.PaymentStatus,
		BudgetEventID:   d.BudgetEventID,
	}
}

// DocumentStatusChangedEvent is raised when a document is posted or cancelled
type DocumentStatusChangedEvent struct {
	shared.BaseDomainEvent
	DocumentType   DocumentType   `json:"document_type"`
	DocumentID     int64          `json:"document_id"`
	DocumentNumber string         `json:"document_number"`
	Status         DocumentStatus `json:"status"`
}

// NewDocumentPostedEvent creates the event for a posted document
func NewDocumentPostedEvent(d *PayableDocument) *DocumentStatusChangedEvent {
	return newDocumentStatusChangedEvent(EventTypeDocumentPosted, d)
}

// NewDocumentCancelledEvent creates the event for a cancelled document
func NewDocumentCancelledEvent(d *PayableDocument) *DocumentStatusChangedEvent {
	return newDocumentStatusChangedEvent(EventTypeDocumentCancelled, d)
}

func newDocumentStatusChangedEvent(eventType string, d *PayableDocument) *DocumentStatusChangedEvent {
	return &DocumentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateTypeDocument, d.ID),
		DocumentType:    d.DocumentType,
		DocumentID:      d.ID,
		DocumentNumber:  d.DocumentNumber,
		Status:          d.Status,
	}
}
