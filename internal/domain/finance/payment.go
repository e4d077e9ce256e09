package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/bizledger/backend/internal/domain/numbering"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PaymentMode is how the money moved
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
	PaymentModeCheck        PaymentMode = "check"
	PaymentModeUPI          PaymentMode = "upi"
	PaymentModeCard         PaymentMode = "card"
	PaymentModeGateway      PaymentMode = "gateway"
)

// AllPaymentModes lists every supported mode
var AllPaymentModes = []PaymentMode{
	PaymentModeCash, PaymentModeBankTransfer, PaymentModeCheck,
	PaymentModeUPI, PaymentModeCard, PaymentModeGateway,
}

// IsValid checks if the mode is a valid PaymentMode
func (m PaymentMode) IsValid() bool {
	for _, v := range AllPaymentModes {
		if m == v {
			return true
		}
	}
	return false
}

var modeTitler = cases.Title(language.English)

// Label renders the mode for receipts, e.g. "Bank Transfer"
func (m PaymentMode) Label() string {
	if m == PaymentModeUPI {
		return "UPI"
	}
	return modeTitler.String(strings.ReplaceAll(string(m), "_", " "))
}

// PaymentKind separates ordinary payments from reversal entries
type PaymentKind string

const (
	PaymentKindPayment    PaymentKind = "payment"
	PaymentKindAdjustment PaymentKind = "adjustment"
)

const (
	maxReferenceLength = 100
	maxNotesLength     = 1000
	maxIdempotencyKey  = 128

	// maxPaymentYearDrift keeps accepted payment years within a 99-year
	// window so two-digit receipt years never collide
	maxPaymentYearDrift = 49
)

// Payment is an immutable record of money applied against one document.
// Ordinary payments are positive; an adjustment is a negative entry pointing
// at the payment it reverses. Rows are never edited or deleted.
type Payment struct {
	shared.BaseEntity
	TargetDocumentType DocumentType
	TargetDocumentID   int64
	Kind               PaymentKind
	Amount             valueobject.Money
	PaymentDate        time.Time
	Mode               PaymentMode
	ReferenceNumber    string
	Notes              string
	IdempotencyKey     *string
	AdjustsPaymentID   *int64
	ReceiptYear        string
	ReceiptSequence    int64
	CreatedBy          string
}

// PaymentInput carries the caller-supplied fields of a payment
type PaymentInput struct {
	DocumentType    DocumentType
	DocumentID      int64
	Amount          valueobject.Money
	Mode            PaymentMode
	PaymentDate     time.Time
	ReferenceNumber string
	Notes           string
	IdempotencyKey  string
}

// Validate checks the input before any database work
func (in PaymentInput) Validate() error {
	if !in.DocumentType.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("Unknown document type %q", in.DocumentType))
	}
	if in.DocumentID <= 0 {
		return shared.NewValidationError("Document id must be positive")
	}
	if !in.Amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be greater than zero")
	}
	if !in.Mode.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("Unknown payment mode %q", in.Mode))
	}
	if !in.PaymentDate.IsZero() {
		if drift := in.PaymentDate.Year() - time.Now().Year(); drift > maxPaymentYearDrift || drift < -maxPaymentYearDrift {
			return shared.NewValidationError(fmt.Sprintf("Payment date %s is out of range", in.PaymentDate.Format(time.DateOnly)))
		}
	}
	if len(in.ReferenceNumber) > maxReferenceLength {
		return shared.NewValidationError(fmt.Sprintf("Reference number cannot exceed %d characters", maxReferenceLength))
	}
	if len(in.Notes) > maxNotesLength {
		return shared.NewValidationError(fmt.Sprintf("Notes cannot exceed %d characters", maxNotesLength))
	}
	if len(in.IdempotencyKey) > maxIdempotencyKey {
		return shared.NewValidationError(fmt.Sprintf("Idempotency key cannot exceed %d characters", maxIdempotencyKey))
	}
	return nil
}

// NewPayment builds a payment from validated input. PaymentDate defaults to now.
func NewPayment(in PaymentInput, createdBy string) (*Payment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	date := in.PaymentDate
	if date.IsZero() {
		date = time.Now()
	}
	p := &Payment{
		BaseEntity:         shared.NewBaseEntity(),
		TargetDocumentType: in.DocumentType,
		TargetDocumentID:   in.DocumentID,
		Kind:               PaymentKindPayment,
		Amount:             in.Amount,
		PaymentDate:        date,
		Mode:               in.Mode,
		ReferenceNumber:    strings.TrimSpace(in.ReferenceNumber),
		Notes:              strings.TrimSpace(in.Notes),
		ReceiptYear:        numbering.YearSuffix(date),
		CreatedBy:          createdBy,
	}
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		p.IdempotencyKey = &key
	}
	return p, nil
}

// NewAdjustment builds a negative entry reversing part or all of original.
// amount is the positive magnitude to reverse; alreadyReversed is the
// magnitude reversed by earlier adjustments.
func NewAdjustment(original *Payment, amount, alreadyReversed valueobject.Money, reason, createdBy string) (*Payment, error) {
	if original == nil || original.Kind != PaymentKindPayment {
		return nil, shared.NewValidationError("Only an ordinary payment can be adjusted")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Adjustment amount must be greater than zero")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewValidationError("Adjustment reason cannot be empty")
	}
	remaining := original.Amount.Subtract(alreadyReversed)
	if amount.GreaterThan(remaining) {
		return nil, shared.NewValidationError(fmt.Sprintf(
			"Adjustment of %s exceeds the %s still reversible on payment %d", amount, remaining, original.ID))
	}

	now := time.Now()
	originalID := original.ID
	return &Payment{
		BaseEntity:         shared.NewBaseEntity(),
		TargetDocumentType: original.TargetDocumentType,
		TargetDocumentID:   original.TargetDocumentID,
		Kind:               PaymentKindAdjustment,
		Amount:             amount.Negate(),
		PaymentDate:        now,
		Mode:               original.Mode,
		ReferenceNumber:    original.ReferenceNumber,
		Notes:              reason,
		AdjustsPaymentID:   &originalID,
		ReceiptYear:        numbering.YearSuffix(now),
		CreatedBy:          createdBy,
	}, nil
}

// AssignReceiptSequence records the receipt counter value allocated for this payment
func (p *Payment) AssignReceiptSequence(seq int64) {
	p.ReceiptSequence = seq
}

// ReceiptNumber renders the receipt number, e.g. "Pay/25/0001"
func (p *Payment) ReceiptNumber() string {
	if p.ReceiptSequence <= 0 {
		return ""
	}
	n, err := numbering.FormatDocumentNumber(numbering.FamilyReceipt, p.ReceiptSequence, p.ReceiptYear)
	if err != nil {
		return ""
	}
	return n
}

// IsAdjustment returns true for reversal entries
func (p *Payment) IsAdjustment() bool {
	return p.Kind == PaymentKindAdjustment
}
