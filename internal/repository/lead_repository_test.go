package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func leadRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "full_name", "phone", "email", "status", "source",
		"assigned_to", "converted_to_student_id", "last_contact_at", "created_at", "updated_at",
	})
}

func TestLeadRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	rows := leadRows().
		AddRow("lead-1", "Aidos", "+77010000000", "aidos@example.com", models.LeadStatusNew, "instagram", nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1")).
		WithArgs("lead-1").
		WillReturnRows(rows)

	lead, err := repo.FindByID(context.Background(), "lead-1")
	require.NoError(t, err)
	require.Equal(t, "Aidos", lead.FullName)
	require.Equal(t, models.LeadStatusNew, lead.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec("UPDATE leads SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.LeadStatusHot)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryConvertToStudentCommitsBothRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE leads SET status").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	lead := &models.Lead{ID: "lead-1", Status: models.LeadStatusConverted, UpdatedAt: time.Now()}
	student := &models.Student{ID: "stu-1", FullName: "Aidos", Status: models.StudentStatusPendingContract, CurrentStep: 1}
	err := repo.ConvertToStudent(context.Background(), lead, student)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryConvertToStudentRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	lead := &models.Lead{ID: "lead-1", Status: models.LeadStatusConverted}
	student := &models.Student{ID: "stu-1"}
	err := repo.ConvertToStudent(context.Background(), lead, student)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryListIdleUsesCutoff(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	cutoff := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	rows := leadRows().
		AddRow("lead-1", "Dana", "+77020000000", "", models.LeadStatusHot, "", nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(last_contact_at, created_at) < $3")).
		WithArgs(models.LeadStatusConverted, models.LeadStatusLost, cutoff).
		WillReturnRows(rows)

	leads, err := repo.ListIdle(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
