package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

// LeadRepository manages persistence for lead records.
type LeadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository constructs a LeadRepository.
func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// List returns leads matching the provided filters.
func (r *LeadRepository) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf(`SELECT id, full_name, phone, email, status, source, assigned_to, converted_to_student_id, last_contact_at, created_at, updated_at
        FROM leads WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)

	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}
	return leads, total, nil
}

// FindByID fetches a lead by ID.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	const query = `SELECT id, full_name, phone, email, status, source, assigned_to, converted_to_student_id, last_contact_at, created_at, updated_at
        FROM leads WHERE id = $1`
	var lead models.Lead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		return nil, err
	}
	return &lead, nil
}

// Create inserts a new lead record.
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	const query = `INSERT INTO leads (id, full_name, phone, email, status, source, assigned_to, converted_to_student_id, last_contact_at, created_at, updated_at)
        VALUES (:id, :full_name, :phone, :email, :status, :source, :assigned_to, :converted_to_student_id, :last_contact_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

// UpdateStatus sets a lead's status.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error {
	const query = `UPDATE leads SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TouchContact records the latest contact timestamp.
func (r *LeadRepository) TouchContact(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE leads SET last_contact_at = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("touch lead contact: %w", err)
	}
	return nil
}

// ConvertToStudent marks a lead converted and creates its student in a
// single transaction: either both rows change or neither does.
func (r *LeadRepository) ConvertToStudent(ctx context.Context, lead *models.Lead, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const insertStudent = `INSERT INTO students (id, full_name, phone, email, passport_number, father_name, mother_name, status, current_step,
        assigned_staff_id, scholarship_type, deposit_paid, balance_paid, total_owed, is_profile_locked, locked_at, locked_by,
        unlocked_fields, offers_unlocked, created_at, updated_at)
        VALUES (:id, :full_name, :phone, :email, :passport_number, :father_name, :mother_name, :status, :current_step,
        :assigned_staff_id, :scholarship_type, :deposit_paid, :balance_paid, :total_owed, :is_profile_locked, :locked_at, :locked_by,
        :unlocked_fields, :offers_unlocked, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertStudent, student); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert converted student: %w", err)
	}
	const updateLead = `UPDATE leads SET status = :status, converted_to_student_id = :converted_to_student_id, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateLead, lead); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("mark lead converted: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lead conversion: %w", err)
	}
	return nil
}

// ListIdle returns non-terminal leads whose last qualifying activity
// (last_contact_at, falling back to created_at) predates the cutoff.
func (r *LeadRepository) ListIdle(ctx context.Context, cutoff time.Time) ([]models.Lead, error) {
	const query = `SELECT id, full_name, phone, email, status, source, assigned_to, converted_to_student_id, last_contact_at, created_at, updated_at
        FROM leads WHERE status NOT IN ($1, $2) AND COALESCE(last_contact_at, created_at) < $3
        ORDER BY COALESCE(last_contact_at, created_at)`
	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, models.LeadStatusConverted, models.LeadStatusLost, cutoff); err != nil {
		return nil, fmt.Errorf("list idle leads: %w", err)
	}
	return leads, nil
}
