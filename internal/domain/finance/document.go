package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/bizledger/backend/internal/domain/numbering"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
)

// DocumentType tags the variant of a payable document
type DocumentType string

const (
	DocumentTypeSaleOrder    DocumentType = "sale_order"
	DocumentTypePurchaseBill DocumentType = "purchase_bill"
	DocumentTypeInvoice      DocumentType = "invoice"
)

// IsValid checks if the type is a valid DocumentType
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeSaleOrder, DocumentTypePurchaseBill, DocumentTypeInvoice:
		return true
	}
	return false
}

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}

// Family returns the numbering family the variant draws its numbers from
func (t DocumentType) Family() numbering.Family {
	switch t {
	case DocumentTypeSaleOrder:
		return numbering.FamilySaleOrder
	case DocumentTypePurchaseBill:
		return numbering.FamilyPurchaseBill
	default:
		return numbering.FamilyInvoice
	}
}

// Label is the human name used on receipts
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypeSaleOrder:
		return "Sale Order"
	case DocumentTypePurchaseBill:
		return "Purchase Bill"
	case DocumentTypeInvoice:
		return "Invoice"
	}
	return string(t)
}

// ParseDocumentType accepts the canonical value and the short URL forms
func ParseDocumentType(s string) (DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sale_order", "sale-order", "sale_orders", "sale-orders", "so":
		return DocumentTypeSaleOrder, nil
	case "purchase_bill", "purchase-bill", "purchase_bills", "purchase-bills", "bill", "bills":
		return DocumentTypePurchaseBill, nil
	case "invoice", "invoices", "inv":
		return DocumentTypeInvoice, nil
	}
	return "", shared.NewValidationError(fmt.Sprintf("Unknown document type %q", s))
}

// DocumentStatus is the lifecycle state of a payable document
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusPosted    DocumentStatus = "posted"
	DocumentStatusCancelled DocumentStatus = "cancelled"
)

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusPosted, DocumentStatusCancelled:
		return true
	}
	return false
}

// Payable is the view of a document the reconciler works against, whatever
// its variant.
type Payable interface {
	GetTotalAmount() valueobject.Money
	GetPaymentStatus() PaymentStatus
	GetBudgetEventID() *int64
}

// PayableDocument is a sale order, purchase bill or invoice. The variants share
// one table and one set of balance rules; DocumentType tells them apart.
type PayableDocument struct {
	shared.BaseAggregateRoot
	DocumentType   DocumentType
	DocumentNumber string
	CounterpartyID int64
	TotalAmount    valueobject.Money
	TotalPaid      valueobject.Money
	Status         DocumentStatus
	PaymentStatus  PaymentStatus
	BudgetEventID  *int64
	Notes          string
	CreatedBy      string
	PostedAt       *time.Time
	CancelledAt    *time.Time
}

// NewPayableDocument creates a draft document. The number is assigned by the
// caller from the family sequence, inside the same transaction as the insert.
func NewPayableDocument(
	docType DocumentType,
	counterpartyID int64,
	totalAmount valueobject.Money,
	budgetEventID *int64,
	notes string,
	createdBy string,
) (*PayableDocument, error) {
	if !docType.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Unknown document type %q", docType))
	}
	if counterpartyID <= 0 {
		return nil, shared.NewValidationError("Counterparty is required")
	}
	if totalAmount.IsNegative() {
		return nil, shared.NewValidationError("Total amount cannot be negative")
	}
	if budgetEventID != nil && *budgetEventID <= 0 {
		return nil, shared.NewValidationError("Budget event id must be positive")
	}

	return &PayableDocument{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DocumentType:      docType,
		CounterpartyID:    counterpartyID,
		TotalAmount:       totalAmount,
		TotalPaid:         valueobject.Zero(),
		Status:            DocumentStatusDraft,
		PaymentStatus:     PaymentStatusNotPaid,
		BudgetEventID:     budgetEventID,
		Notes:             strings.TrimSpace(notes),
		CreatedBy:         createdBy,
	}, nil
}

// AssignNumber sets the formatted document number once
func (d *PayableDocument) AssignNumber(number string) error {
	if d.DocumentNumber != "" {
		return shared.NewInvalidStateError("Document number is already assigned")
	}
	if number == "" {
		return shared.NewValidationError("Document number cannot be empty")
	}
	d.DocumentNumber = number
	return nil
}

// Post moves a draft to posted. Posted documents count toward their budget.
func (d *PayableDocument) Post() error {
	if d.Status != DocumentStatusDraft {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot post document in %s status", d.Status))
	}
	now := time.Now()
	d.Status = DocumentStatusPosted
	d.PostedAt = &now
	d.Touch()
	d.IncrementVersion()

	d.AddDomainEvent(NewDocumentPostedEvent(d))
	return nil
}

// Cancel moves a draft or posted document to cancelled. Payments are
// immutable, so a document with any payment against it cannot be cancelled.
func (d *PayableDocument) Cancel(paymentCount int64) error {
	if d.Status == DocumentStatusCancelled {
		return shared.NewInvalidStateError("Document is already cancelled")
	}
	if paymentCount > 0 {
		return shared.NewInvalidStateError(fmt.Sprintf(
			"Cannot cancel %s %s: %d payment(s) recorded", d.DocumentType.Label(), d.DocumentNumber, paymentCount))
	}
	now := time.Now()
	d.Status = DocumentStatusCancelled
	d.CancelledAt = &now
	d.Touch()
	d.IncrementVersion()

	d.AddDomainEvent(NewDocumentCancelledEvent(d))
	return nil
}

// CheckPayment validates that amount can be applied on top of totalPaid.
// tolerance is the amount by which the paid sum may exceed the total.
func (d *PayableDocument) CheckPayment(amount, totalPaid, tolerance valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be greater than zero")
	}
	if d.Status == DocumentStatusCancelled {
		return shared.NewValidationError(fmt.Sprintf(
			"%s %s is cancelled and cannot take payments", d.DocumentType.Label(), d.DocumentNumber))
	}
	limit := d.TotalAmount.Add(tolerance)
	if totalPaid.Add(amount).GreaterThan(limit) {
		return shared.NewOverpaymentError(fmt.Sprintf(
			"Payment of %s exceeds the outstanding balance of %s on %s %s",
			amount, d.TotalAmount.Subtract(totalPaid).FloorZero(), d.DocumentType.Label(), d.DocumentNumber))
	}
	return nil
}

// ApplyPaidTotal caches the new paid sum and re-derives the payment status
func (d *PayableDocument) ApplyPaidTotal(totalPaid valueobject.Money) {
	d.TotalPaid = totalPaid
	d.PaymentStatus = DerivePaymentStatus(d.TotalAmount, totalPaid)
	d.Touch()
	d.IncrementVersion()
}

// CountsTowardBudget reports whether payments should move the linked budget
func (d *PayableDocument) CountsTowardBudget() bool {
	return d.Status == DocumentStatusPosted && d.BudgetEventID != nil
}

// IsCancelled returns true if the document is cancelled
func (d *PayableDocument) IsCancelled() bool {
	return d.Status == DocumentStatusCancelled
}

// Label renders e.g. "Invoice INV-00005"
func (d *PayableDocument) Label() string {
	return strings.TrimSpace(d.DocumentType.Label() + " " + d.DocumentNumber)
}

// GetTotalAmount implements Payable
func (d *PayableDocument) GetTotalAmount() valueobject.Money { return d.TotalAmount }

// GetPaymentStatus implements Payable
func (d *PayableDocument) GetPaymentStatus() PaymentStatus { return d.PaymentStatus }

// GetBudgetEventID implements Payable
func (d *PayableDocument) GetBudgetEventID() *int64 { return d.BudgetEventID }

var _ Payable = (*PayableDocument)(nil)
