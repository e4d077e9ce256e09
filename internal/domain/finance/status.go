package finance

import "github.com/bizledger/backend/internal/domain/shared/valueobject"

// PaymentStatus summarises how much of a document has been paid
type PaymentStatus string

const (
	PaymentStatusNotPaid PaymentStatus = "not_paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusNotPaid, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// DerivePaymentStatus is the single source of truth for payment status: it
// depends only on the document total and the sum of its payments, so the
// order in which payments arrive never matters.
func DerivePaymentStatus(total, paid valueobject.Money) PaymentStatus {
	switch {
	case !paid.IsPositive():
		return PaymentStatusNotPaid
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}

// Balance is the payment position of a document
type Balance struct {
	TotalAmount valueobject.Money
	TotalPaid   valueobject.Money
	// Balance is floored at zero for display
	Balance valueobject.Money
	// SignedBalance keeps the true value so an overpayment is visible
	SignedBalance valueobject.Money
	PaymentStatus PaymentStatus
}

// NewBalance derives a Balance from a total and a paid sum
func NewBalance(total, paid valueobject.Money) Balance {
	signed := total.Subtract(paid)
	return Balance{
		TotalAmount:   total,
		TotalPaid:     paid,
		Balance:       signed.FloorZero(),
		SignedBalance: signed,
		PaymentStatus: DerivePaymentStatus(total, paid),
	}
}
