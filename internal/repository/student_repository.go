package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

const studentColumns = `id, full_name, phone, email, passport_number, father_name, mother_name, status, current_step,
    assigned_staff_id, scholarship_type, deposit_paid, balance_paid, total_owed, is_profile_locked, locked_at, locked_by,
    unlocked_fields, offers_unlocked, created_at, updated_at`

const updateStudentQuery = `UPDATE students SET full_name = :full_name, phone = :phone, email = :email,
    passport_number = :passport_number, father_name = :father_name, mother_name = :mother_name, status = :status,
    current_step = :current_step, assigned_staff_id = :assigned_staff_id, scholarship_type = :scholarship_type,
    deposit_paid = :deposit_paid, balance_paid = :balance_paid, total_owed = :total_owed,
    is_profile_locked = :is_profile_locked, locked_at = :locked_at, locked_by = :locked_by,
    unlocked_fields = :unlocked_fields, offers_unlocked = :offers_unlocked, updated_at = :updated_at WHERE id = :id`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.AssignedStaffID != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_staff_id = $%d", len(args)+1))
		args = append(args, filter.AssignedStaffID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(passport_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d", studentColumns, where, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Update persists the full student row.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, updateStudentQuery, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// ReleaseOffer persists the offer-release cascade in one transaction:
// the student row (offers unlocked, status, step) plus un-hiding the
// student's offer documents.
func (r *StudentRepository) ReleaseOffer(ctx context.Context, student *models.Student, docTypes []models.DocumentType) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	student.UpdatedAt = time.Now().UTC()
	if _, err := tx.NamedExecContext(ctx, updateStudentQuery, student); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("release offer student update: %w", err)
	}
	if len(docTypes) > 0 {
		placeholders := make([]string, len(docTypes))
		args := make([]interface{}, 0, len(docTypes)+2)
		args = append(args, student.ID, time.Now().UTC())
		for i, dt := range docTypes {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, dt)
		}
		query := fmt.Sprintf("UPDATE documents SET is_hidden = false, updated_at = $2 WHERE student_id = $1 AND type IN (%s)", strings.Join(placeholders, ","))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("unhide offer documents: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit offer release: %w", err)
	}
	return nil
}
