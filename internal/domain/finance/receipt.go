package finance

import (
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// ReceiptView is everything a printed receipt shows. It is built from
// persisted state and never feeds back into it.
type ReceiptView struct {
	ReceiptNumber   string            `json:"receipt_number"`
	PaymentID       int64             `json:"payment_id"`
	IsAdjustment    bool              `json:"is_adjustment"`
	PartnerName     string            `json:"partner_name"`
	DocumentType    DocumentType      `json:"document_type"`
	DocumentNumber  string            `json:"document_number"`
	DocumentLabel   string            `json:"document_label"`
	Amount          valueobject.Money `json:"amount"`
	AmountInWords   string            `json:"amount_in_words"`
	Mode            PaymentMode       `json:"mode"`
	ModeLabel       string            `json:"mode_label"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	PaymentDate     time.Time         `json:"payment_date"`
	TotalAmount     valueobject.Money `json:"total_amount"`
	PaidToDate      valueobject.Money `json:"paid_to_date"`
	BalanceAfter    valueobject.Money `json:"balance_after"`
	PaymentStatus   PaymentStatus     `json:"payment_status"`
}

// PaidThrough sums the entries of a document's payment log up to and
// including paymentID, so a receipt shows the balance as it stood right after
// that payment no matter when it is printed.
func PaidThrough(entries []Payment, paymentID int64) valueobject.Money {
	total := valueobject.Zero()
	for _, e := range entries {
		if e.ID > paymentID {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// BuildReceiptView assembles the receipt for p against its document d
func BuildReceiptView(p *Payment, d *PayableDocument, counterparty *partner.Contact, paidThrough valueobject.Money) (*ReceiptView, error) {
	if p == nil || d == nil {
		return nil, shared.NewValidationError("Payment and document are required to build a receipt")
	}
	if p.TargetDocumentType != d.DocumentType || p.TargetDocumentID != d.ID {
		return nil, shared.NewValidationError(fmt.Sprintf(
			"Payment %d does not belong to %s", p.ID, d.Label()))
	}

	after := NewBalance(d.TotalAmount, paidThrough)
	return &ReceiptView{
		ReceiptNumber:   p.ReceiptNumber(),
		PaymentID:       p.ID,
		IsAdjustment:    p.IsAdjustment(),
		PartnerName:     counterparty.DisplayName(),
		DocumentType:    d.DocumentType,
		DocumentNumber:  d.DocumentNumber,
		DocumentLabel:   d.Label(),
		Amount:          p.Amount,
		AmountInWords:   valueobject.AmountInWords(p.Amount),
		Mode:            p.Mode,
		ModeLabel:       p.Mode.Label(),
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
		PaymentDate:     p.PaymentDate,
		TotalAmount:     d.TotalAmount,
		PaidToDate:      paidThrough,
		BalanceAfter:    after.Balance,
		PaymentStatus:   after.PaymentStatus,
	}, nil
}
