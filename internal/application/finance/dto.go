package finance

import (
	"time"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Document DTOs
// =============================================================================

// CreateDocumentRequest represents a request to create a sale order,
// purchase bill or invoice. The variant comes from the URL.
type CreateDocumentRequest struct {
	CounterpartyID int64             `json:"counterparty_id" binding:"required,gt=0" example:"1"`
	TotalAmount    valueobject.Money `json:"total_amount" binding:"money_nonnegative" swaggertype:"string" example:"1000.00"`
	BudgetEventID  *int64            `json:"budget_event_id" binding:"omitempty,gt=0"`
	Notes          string            `json:"notes" binding:"max=1000"`
}

// DocumentResponse represents a payable document
type DocumentResponse struct {
	ID             int64             `json:"id"`
	DocumentType   string            `json:"document_type"`
	DocumentNumber string            `json:"document_number"`
	DocumentLabel  string            `json:"document_label"`
	CounterpartyID int64             `json:"counterparty_id"`
	TotalAmount    valueobject.Money `json:"total_amount" swaggertype:"string"`
	TotalPaid      valueobject.Money `json:"total_paid" swaggertype:"string"`
	Balance        valueobject.Money `json:"balance" swaggertype:"string"`
	Status         string            `json:"status"`
	PaymentStatus  string            `json:"payment_status"`
	BudgetEventID  *int64            `json:"budget_event_id,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	CreatedBy      string            `json:"created_by,omitempty"`
	PostedAt       *time.Time        `json:"posted_at,omitempty"`
	CancelledAt    *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Version        int               `json:"version"`
}

// ToDocumentResponse converts a domain document to its response form
func ToDocumentResponse(d *finance.PayableDocument) DocumentResponse {
	return DocumentResponse{
		ID:             d.ID,
		DocumentType:   string(d.DocumentType),
		DocumentNumber: d.DocumentNumber,
		DocumentLabel:  d.Label(),
		CounterpartyID: d.CounterpartyID,
		TotalAmount:    d.TotalAmount,
		TotalPaid:      d.TotalPaid,
		Balance:        d.TotalAmount.Subtract(d.TotalPaid).FloorZero(),
		Status:         string(d.Status),
		PaymentStatus:  string(d.PaymentStatus),
		BudgetEventID:  d.BudgetEventID,
		Notes:          d.Notes,
		CreatedBy:      d.CreatedBy,
		PostedAt:       d.PostedAt,
		CancelledAt:    d.CancelledAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		Version:        d.Version,
	}
}

// =============================================================================
// Balance DTOs
// =============================================================================

// BalanceResponse is the payment position of a document
type BalanceResponse struct {
	DocumentType   string            `json:"document_type"`
	DocumentID     int64             `json:"document_id"`
	DocumentNumber string            `json:"document_number"`
	TotalAmount    valueobject.Money `json:"total_amount" swaggertype:"string"`
	TotalPaid      valueobject.Money `json:"total_paid" swaggertype:"string"`
	Balance        valueobject.Money `json:"balance" swaggertype:"string"`
	SignedBalance  valueobject.Money `json:"signed_balance" swaggertype:"string"`
	PaymentStatus  string            `json:"payment_status"`
}

// ToBalanceResponse builds a balance response for d with paid as the paid sum
func ToBalanceResponse(d *finance.PayableDocument, paid valueobject.Money) BalanceResponse {
	b := finance.NewBalance(d.TotalAmount, paid)
	return BalanceResponse{
		DocumentType:   string(d.DocumentType),
		DocumentID:     d.ID,
		DocumentNumber: d.DocumentNumber,
		TotalAmount:    b.TotalAmount,
		TotalPaid:      b.TotalPaid,
		Balance:        b.Balance,
		SignedBalance:  b.SignedBalance,
		PaymentStatus:  string(b.PaymentStatus),
	}
}

// =============================================================================
// Payment DTOs
// =============================================================================

// RecordPaymentRequest represents a payment against a document. The
// idempotency key may also be sent in the Idempotency-Key header.
type RecordPaymentRequest struct {
	Amount          valueobject.Money `json:"amount" binding:"money_positive" swaggertype:"string" example:"250.00"`
	Mode            string            `json:"mode" binding:"required,payment_mode" example:"upi"`
	PaymentDate     *time.Time        `json:"payment_date"`
	ReferenceNumber string            `json:"reference_number" binding:"max=100"`
	Notes           string            `json:"notes" binding:"max=1000"`
	IdempotencyKey  string            `json:"idempotency_key" binding:"max=128"`
}

// ToPaymentInput converts the request into the domain input for a document
func (r RecordPaymentRequest) ToPaymentInput(docType finance.DocumentType, docID int64) finance.PaymentInput {
	in := finance.PaymentInput{
		DocumentType:    docType,
		DocumentID:      docID,
		Amount:          r.Amount,
		Mode:            finance.PaymentMode(r.Mode),
		ReferenceNumber: r.ReferenceNumber,
		Notes:           r.Notes,
		IdempotencyKey:  r.IdempotencyKey,
	}
	if r.PaymentDate != nil {
		in.PaymentDate = *r.PaymentDate
	}
	return in
}

// RecordAdjustmentRequest represents a reversal of part or all of a payment
type RecordAdjustmentRequest struct {
	Amount valueobject.Money `json:"amount" binding:"money_positive" swaggertype:"string" example:"100.00"`
	Reason string            `json:"reason" binding:"required,max=1000" example:"Customer refund"`
}

// PaymentResponse represents a payment or adjustment entry
type PaymentResponse struct {
	ID               int64             `json:"id"`
	Kind             string            `json:"kind"`
	DocumentType     string            `json:"document_type"`
	DocumentID       int64             `json:"document_id"`
	Amount           valueobject.Money `json:"amount" swaggertype:"string"`
	PaymentDate      time.Time         `json:"payment_date"`
	Mode             string            `json:"mode"`
	ReferenceNumber  string            `json:"reference_number,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	IdempotencyKey   string            `json:"idempotency_key,omitempty"`
	AdjustsPaymentID *int64            `json:"adjusts_payment_id,omitempty"`
	ReceiptNumber    string            `json:"receipt_number"`
	CreatedBy        string            `json:"created_by,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ToPaymentResponse converts a domain payment to its response form
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:               p.ID,
		Kind:             string(p.Kind),
		DocumentType:     string(p.TargetDocumentType),
		DocumentID:       p.TargetDocumentID,
		Amount:           p.Amount,
		PaymentDate:      p.PaymentDate,
		Mode:             string(p.Mode),
		ReferenceNumber:  p.ReferenceNumber,
		Notes:            p.Notes,
		AdjustsPaymentID: p.AdjustsPaymentID,
		ReceiptNumber:    p.ReceiptNumber(),
		CreatedBy:        p.CreatedBy,
		CreatedAt:        p.CreatedAt,
	}
	if p.IdempotencyKey != nil {
		resp.IdempotencyKey = *p.IdempotencyKey
	}
	return resp
}

// PaymentResult is returned by RecordPayment and RecordAdjustment: the entry
// and the document balance right after it. Replayed is true when an earlier
// payment with the same idempotency key was returned instead of a new one.
type PaymentResult struct {
	Payment  PaymentResponse `json:"payment"`
	Balance  BalanceResponse `json:"balance"`
	Replayed bool            `json:"replayed"`
}

// =============================================================================
// Receipt DTOs
// =============================================================================

// ArchivedReceipt describes a receipt PDF stored in the archive
type ArchivedReceipt struct {
	ReceiptNumber string    `json:"receipt_number"`
	Key           string    `json:"key"`
	URL           string    `json:"url"`
	ExpiresAt     time.Time `json:"expires_at"`
}
