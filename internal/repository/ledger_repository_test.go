package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
)

func TestLedgerRepositoryAppendGeneratesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectExec("INSERT INTO ledger_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.LedgerEntry{
		StudentID: "stu-1",
		Type:      models.LedgerEntryCredit,
		Category:  models.LedgerCategoryPayment,
		Amount:    500,
	}
	err := repo.Append(context.Background(), entry)
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryListByStudentOrdersByCreation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "invoice_id", "type", "category", "amount", "is_reversal", "note", "created_at"}).
		AddRow("le-1", "stu-1", nil, models.LedgerEntryCredit, models.LedgerCategoryPayment, 500.0, false, nil, time.Now()).
		AddRow("le-2", "stu-1", nil, models.LedgerEntryDebit, models.LedgerCategoryRefund, 500.0, true, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM ledger_entries WHERE student_id = $1 ORDER BY created_at")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	entries, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[1].IsReversal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryBalanceSumsCreditsMinusDebits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("stu-1", models.LedgerEntryCredit).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(250.0))

	balance, err := repo.BalanceForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Equal(t, 250.0, balance)
	require.NoError(t, mock.ExpectationsWereMet())
}
