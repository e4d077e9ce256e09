package finance

import (
	"testing"

	"github.com/bizledger/backend/internal/domain/numbering"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) valueobject.Money {
	return valueobject.MustParseMoney(s)
}

func createTestDocument(t *testing.T, total string) *PayableDocument {
	t.Helper()
	budgetID := int64(7)
	d, err := NewPayableDocument(DocumentTypeInvoice, 3, money(total), &budgetID, "", "admin-1")
	require.NoError(t, err)
	require.NoError(t, d.AssignNumber("INV-00001"))
	d.ID = 11
	return d
}

func TestNewPayableDocument(t *testing.T) {
	t.Run("starts as unpaid draft", func(t *testing.T) {
		d := createTestDocument(t, "1000")
		assert.Equal(t, DocumentStatusDraft, d.Status)
		assert.Equal(t, PaymentStatusNotPaid, d.PaymentStatus)
		assert.True(t, d.TotalPaid.IsZero())
		assert.Equal(t, "Invoice INV-00001", d.Label())
	})

	zero := int64(0)
	tests := []struct {
		name    string
		docType DocumentType
		party   int64
		total   string
		budget  *int64
	}{
		{"bad type", DocumentType("quote"), 1, "10", nil},
		{"no counterparty", DocumentTypeInvoice, 0, "10", nil},
		{"negative total", DocumentTypeInvoice, 1, "-10", nil},
		{"bad budget id", DocumentTypeInvoice, 1, "10", &zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPayableDocument(tt.docType, tt.party, money(tt.total), tt.budget, "", "admin-1")
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestDocumentType_Family(t *testing.T) {
	assert.Equal(t, numbering.FamilySaleOrder, DocumentTypeSaleOrder.Family())
	assert.Equal(t, numbering.FamilyPurchaseBill, DocumentTypePurchaseBill.Family())
	assert.Equal(t, numbering.FamilyInvoice, DocumentTypeInvoice.Family())
}

func TestParseDocumentType(t *testing.T) {
	for in, want := range map[string]DocumentType{
		"invoices":      DocumentTypeInvoice,
		"bills":         DocumentTypePurchaseBill,
		"sale-orders":   DocumentTypeSaleOrder,
		"SALE_ORDER":    DocumentTypeSaleOrder,
		"purchase_bill": DocumentTypePurchaseBill,
	} {
		got, err := ParseDocumentType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDocumentType("quotes")
	assert.True(t, shared.IsValidation(err))
}

func TestPayableDocument_AssignNumber(t *testing.T) {
	d := createTestDocument(t, "10")
	err := d.AssignNumber("INV-00002")
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err))
	assert.Equal(t, "INV-00001", d.DocumentNumber)
}

func TestPayableDocument_PostAndCancel(t *testing.T) {
	t.Run("post draft", func(t *testing.T) {
		d := createTestDocument(t, "10")
		require.NoError(t, d.Post())
		assert.Equal(t, DocumentStatusPosted, d.Status)
		assert.NotNil(t, d.PostedAt)
		assert.True(t, d.CountsTowardBudget())
		assert.Len(t, d.GetDomainEvents(), 1)

		assert.Error(t, d.Post())
	})

	t.Run("draft does not count toward budget", func(t *testing.T) {
		d := createTestDocument(t, "10")
		assert.False(t, d.CountsTowardBudget())
	})

	t.Run("cancel without payments", func(t *testing.T) {
		d := createTestDocument(t, "10")
		require.NoError(t, d.Cancel(0))
		assert.True(t, d.IsCancelled())
		assert.Error(t, d.Cancel(0))
	})

	t.Run("cannot cancel with payments", func(t *testing.T) {
		d := createTestDocument(t, "10")
		err := d.Cancel(2)
		assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err))
		assert.Equal(t, DocumentStatusDraft, d.Status)
	})
}

func TestPayableDocument_CheckPayment(t *testing.T) {
	d := createTestDocument(t, "1000")

	t.Run("rejects non-positive", func(t *testing.T) {
		assert.True(t, shared.IsValidation(d.CheckPayment(money("0"), money("0"), money("0"))))
		assert.True(t, shared.IsValidation(d.CheckPayment(money("-5"), money("0"), money("0"))))
	})

	t.Run("overpayment", func(t *testing.T) {
		err := d.CheckPayment(money("250"), money("800"), money("0"))
		assert.True(t, shared.IsOverpayment(err))
		assert.Contains(t, err.Error(), "200.00")
	})

	t.Run("exact remaining is fine", func(t *testing.T) {
		assert.NoError(t, d.CheckPayment(money("200"), money("800"), money("0")))
	})

	t.Run("tolerance", func(t *testing.T) {
		assert.NoError(t, d.CheckPayment(money("200.50"), money("800"), money("0.50")))
		assert.True(t, shared.IsOverpayment(d.CheckPayment(money("200.51"), money("800"), money("0.50"))))
	})

	t.Run("cancelled document", func(t *testing.T) {
		c := createTestDocument(t, "1000")
		require.NoError(t, c.Cancel(0))
		assert.True(t, shared.IsValidation(c.CheckPayment(money("1"), money("0"), money("0"))))
	})
}

func TestPayableDocument_ApplyPaidTotal(t *testing.T) {
	d := createTestDocument(t, "1000")
	d.ApplyPaidTotal(money("800"))
	assert.Equal(t, PaymentStatusPartial, d.PaymentStatus)
	assert.Equal(t, 2, d.Version)

	d.ApplyPaidTotal(money("1000"))
	assert.Equal(t, PaymentStatusPaid, d.PaymentStatus)
	assert.Equal(t, "1000.00", d.TotalPaid.String())
}
