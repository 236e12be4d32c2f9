package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

const applicationColumns = `id, student_id, university_name, program, batch, status, submitted_to_admin_at,
    submitted_to_uni_at, decision_at, return_reason, created_at, updated_at`

const updateApplicationQuery = `UPDATE university_applications SET status = :status,
    submitted_to_admin_at = :submitted_to_admin_at, submitted_to_uni_at = :submitted_to_uni_at,
    decision_at = :decision_at, return_reason = :return_reason, updated_at = :updated_at WHERE id = :id`

// ApplicationRepository manages persistence for university applications and
// owns the transactions for application→student cascades.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// FindByID fetches an application by ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.UniversityApplication, error) {
	query := fmt.Sprintf("SELECT %s FROM university_applications WHERE id = $1", applicationColumns)
	var app models.UniversityApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListByStudent returns all applications for a student.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.UniversityApplication, error) {
	query := fmt.Sprintf("SELECT %s FROM university_applications WHERE student_id = $1 ORDER BY created_at", applicationColumns)
	var apps []models.UniversityApplication
	if err := r.db.SelectContext(ctx, &apps, query, studentID); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// CountByBatch returns how many applications the student has in a batch.
func (r *ApplicationRepository) CountByBatch(ctx context.Context, studentID string, batch int) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM university_applications WHERE student_id = $1 AND batch = $2`
	if err := r.db.GetContext(ctx, &count, query, studentID, batch); err != nil {
		return 0, fmt.Errorf("count batch applications: %w", err)
	}
	return count, nil
}

// ExistsForUniversity reports whether the student already targets the
// university in any batch.
func (r *ApplicationRepository) ExistsForUniversity(ctx context.Context, studentID, universityName string) (bool, error) {
	var exists int
	const query = `SELECT 1 FROM university_applications WHERE student_id = $1 AND university_name = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &exists, query, studentID, universityName); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check university membership: %w", err)
	}
	return true, nil
}

// Create inserts a new application in draft.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.UniversityApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	const query = `INSERT INTO university_applications (id, student_id, university_name, program, batch, status,
        submitted_to_admin_at, submitted_to_uni_at, decision_at, return_reason, created_at, updated_at)
        VALUES (:id, :student_id, :university_name, :program, :batch, :status,
        :submitted_to_admin_at, :submitted_to_uni_at, :decision_at, :return_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// UpdateWithStudent persists an application row together with its student's
// row in one transaction. Used for every cascade so a concurrent reader
// never observes the application changed without the student side effect.
func (r *ApplicationRepository) UpdateWithStudent(ctx context.Context, app *models.UniversityApplication, student *models.Student) error {
	return r.updateCascade(ctx, app, student, false)
}

// UpdateWithStudentLockingDocuments additionally locks every document of the
// student inside the same transaction. Used by submit-to-university.
func (r *ApplicationRepository) UpdateWithStudentLockingDocuments(ctx context.Context, app *models.UniversityApplication, student *models.Student) error {
	return r.updateCascade(ctx, app, student, true)
}

func (r *ApplicationRepository) updateCascade(ctx context.Context, app *models.UniversityApplication, student *models.Student, lockDocuments bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	app.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, updateApplicationQuery, app); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update application: %w", err)
	}
	student.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, updateStudentQuery, student); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update cascaded student: %w", err)
	}
	if lockDocuments {
		const lockQuery = `UPDATE documents SET is_locked = true, status = $2, updated_at = $3 WHERE student_id = $1`
		if _, err := tx.ExecContext(ctx, lockQuery, student.ID, models.DocumentStatusLocked, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("lock student documents: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit application cascade: %w", err)
	}
	return nil
}

// ListIdlePendingAdmin returns applications waiting on admin review since
// before the cutoff.
func (r *ApplicationRepository) ListIdlePendingAdmin(ctx context.Context, cutoff time.Time) ([]models.UniversityApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM university_applications
        WHERE status = $1 AND submitted_to_admin_at IS NOT NULL AND submitted_to_admin_at < $2
        ORDER BY submitted_to_admin_at`, applicationColumns)
	var apps []models.UniversityApplication
	if err := r.db.SelectContext(ctx, &apps, query, models.ApplicationStatusPendingAdmin, cutoff); err != nil {
		return nil, fmt.Errorf("list idle applications: %w", err)
	}
	return apps, nil
}
