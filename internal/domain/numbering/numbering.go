// Package numbering formats and allocates the sequential numbers printed on
// sale orders, purchase bills, invoices and payment receipts.
package numbering

import (
	"context"
	"fmt"
	"time"
)

// Family identifies an independent numbering sequence
type Family string

const (
	FamilySaleOrder    Family = "SO"
	FamilyPurchaseBill Family = "BILL"
	FamilyInvoice      Family = "INV"
	FamilyReceipt      Family = "Pay"
)

// AllFamilies lists every supported family
var AllFamilies = []Family{FamilySaleOrder, FamilyPurchaseBill, FamilyInvoice, FamilyReceipt}

// IsValid reports whether f is a known family
func (f Family) IsValid() bool {
	switch f {
	case FamilySaleOrder, FamilyPurchaseBill, FamilyInvoice, FamilyReceipt:
		return true
	}
	return false
}

// YearScoped reports whether the family restarts its counter every year
func (f Family) YearScoped() bool {
	return f == FamilyReceipt
}

// Width returns the zero-pad width of the sequence part
func (f Family) Width() int {
	if f == FamilyReceipt {
		return 4
	}
	return 5
}

// YearSuffix returns the two-digit year used to scope receipt numbers
func YearSuffix(t time.Time) string {
	return fmt.Sprintf("%02d", t.Year()%100)
}

// Scope returns the counter scope for a family: the two-digit year for
// year-scoped families and "" for the others.
func Scope(f Family, yearSuffix string) string {
	if f.YearScoped() {
		return yearSuffix
	}
	return ""
}

// FormatDocumentNumber renders a sequence value for a family:
//
//	SO-00001, BILL-00005, INV-00005, Pay/25/0001
//
// Values wider than the family's pad width are printed in full.
func FormatDocumentNumber(f Family, seq int64, yearSuffix string) (string, error) {
	if !f.IsValid() {
		return "", fmt.Errorf("unknown document family %q", f)
	}
	if seq <= 0 {
		return "", fmt.Errorf("sequence value must be positive, got %d", seq)
	}
	if f.YearScoped() {
		if len(yearSuffix) != 2 {
			return "", fmt.Errorf("family %s requires a two-digit year suffix, got %q", f, yearSuffix)
		}
		return fmt.Sprintf("%s/%s/%0*d", f, yearSuffix, f.Width(), seq), nil
	}
	return fmt.Sprintf("%s-%0*d", f, f.Width(), seq), nil
}

// Allocator hands out the next sequence value for a family. Implementations
// must never return the same value twice for one (family, scope), even when
// called concurrently; a value allocated inside a transaction that later
// rolls back may be reused.
type Allocator interface {
	Next(ctx context.Context, f Family, yearSuffix string) (int64, error)
}
