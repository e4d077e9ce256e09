package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDocumentRepository creates a GormPayableDocumentRepository with a mocked SQL connection
func newMockDocumentRepository(t *testing.T) (*GormPayableDocumentRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPayableDocumentRepository(gormDB), mock, mockDB
}

func paidInvoice(t *testing.T) *finance.PayableDocument {
	t.Helper()
	d, err := finance.NewPayableDocument(finance.DocumentTypeInvoice, 1, mustMoney("500"), nil, "", "admin-1")
	require.NoError(t, err)
	d.ID = 10
	d.DocumentNumber = "INV-00010"
	d.ApplyPaidTotal(mustMoney("200"))
	return d
}

func TestGormPayableDocumentRepository_SaveWithLock(t *testing.T) {
	t.Run("writes when the stored version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockDocumentRepository(t)
		defer mockDB.Close()
		d := paidInvoice(t)

		mock.ExpectQuery(`SELECT "version" FROM "payable_documents"`).
			WithArgs(d.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
		mock.ExpectExec(`UPDATE "payable_documents" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), d)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails early on version mismatch", func(t *testing.T) {
		repo, mock, mockDB := newMockDocumentRepository(t)
		defer mockDB.Close()
		d := paidInvoice(t)

		mock.ExpectQuery(`SELECT "version" FROM "payable_documents"`).
			WithArgs(d.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))

		err := repo.SaveWithLock(context.Background(), d)

		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
		assert.Contains(t, err.Error(), "INV-00010")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses the race between check and update", func(t *testing.T) {
		repo, mock, mockDB := newMockDocumentRepository(t)
		defer mockDB.Close()
		d := paidInvoice(t)

		mock.ExpectQuery(`SELECT "version" FROM "payable_documents"`).
			WithArgs(d.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
		mock.ExpectExec(`UPDATE "payable_documents" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), d)

		assert.True(t, shared.IsConflict(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock, mockDB := newMockDocumentRepository(t)
		defer mockDB.Close()
		d := paidInvoice(t)

		mock.ExpectQuery(`SELECT "version" FROM "payable_documents"`).
			WithArgs(d.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		err := repo.SaveWithLock(context.Background(), d)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPayableDocumentRepository_FindByIDForUpdate_LocksOnPostgres(t *testing.T) {
	repo, mock, mockDB := newMockDocumentRepository(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "payable_documents" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_type", "document_number", "total_amount", "total_paid", "status", "payment_status", "version"}).
			AddRow(10, "invoice", "INV-00010", "500.00", "0.00", "draft", "not_paid", 1))

	d, err := repo.FindByIDForUpdate(context.Background(), finance.DocumentTypeInvoice, 10)

	require.NoError(t, err)
	assert.Equal(t, "INV-00010", d.DocumentNumber)
	assert.Equal(t, "500.00", d.TotalAmount.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
