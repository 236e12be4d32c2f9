package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
)

func TestInvoiceRepositorySettlePaymentWithoutCommission(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoices SET status").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE students SET").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	invoice := &models.Invoice{ID: "inv-1", StudentID: "stu-1", Status: models.InvoiceStatusPaid}
	student := &models.Student{ID: "stu-1", DepositPaid: 500}
	entry := &models.LedgerEntry{StudentID: "stu-1", Type: models.LedgerEntryCredit, Category: models.LedgerCategoryPayment, Amount: 500}
	err := repo.SettlePayment(context.Background(), invoice, student, entry, nil)
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepositorySettlePaymentWithCommission(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoices SET status").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE students SET").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO commissions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE staff SET").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	invoice := &models.Invoice{ID: "inv-1", StudentID: "stu-1", Status: models.InvoiceStatusPaid}
	student := &models.Student{ID: "stu-1", DepositPaid: 800}
	entry := &models.LedgerEntry{StudentID: "stu-1", Type: models.LedgerEntryCredit, Category: models.LedgerCategoryPayment, Amount: 800}
	commission := &models.Commission{StaffID: "staff-1", StudentID: "stu-1", ContractID: "ct-1", Amount: 200, Status: models.CommissionStatusPending}
	err := repo.SettlePayment(context.Background(), invoice, student, entry, commission)
	require.NoError(t, err)
	require.NotEmpty(t, commission.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepositorySettlePaymentRollsBackOnBucketFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoices SET status").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE students SET").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO commissions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE staff SET").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	invoice := &models.Invoice{ID: "inv-1", StudentID: "stu-1", Status: models.InvoiceStatusPaid}
	student := &models.Student{ID: "stu-1", DepositPaid: 800}
	entry := &models.LedgerEntry{StudentID: "stu-1", Type: models.LedgerEntryCredit, Category: models.LedgerCategoryPayment, Amount: 800}
	commission := &models.Commission{StaffID: "staff-1", StudentID: "stu-1", ContractID: "ct-1", Amount: 200, Status: models.CommissionStatusPending}
	err := repo.SettlePayment(context.Background(), invoice, student, entry, commission)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepositorySettleRefundRollsBackOnLedgerFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoices SET status").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	invoice := &models.Invoice{ID: "inv-1", StudentID: "stu-1", Status: models.InvoiceStatusRefunded}
	entry := &models.LedgerEntry{StudentID: "stu-1", Type: models.LedgerEntryDebit, Category: models.LedgerCategoryRefund, Amount: 500, IsReversal: true}
	err := repo.SettleRefund(context.Background(), invoice, entry)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
