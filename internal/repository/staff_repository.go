package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

const staffColumns = `id, full_name, email, password_hash, role, active, pending_commission, paid_commission, total_commission, created_at, updated_at`

// StaffRepository manages persistence for staff records.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs a StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindByID fetches a staff member by ID.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff WHERE id = $1", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, err
	}
	return &staff, nil
}

// FindByEmail fetches a staff member by email for authentication.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff WHERE email = $1", staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, email); err != nil {
		return nil, err
	}
	return &staff, nil
}

// List returns all staff members.
func (r *StaffRepository) List(ctx context.Context) ([]models.Staff, error) {
	query := fmt.Sprintf("SELECT %s FROM staff ORDER BY full_name", staffColumns)
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, query); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

// Create inserts a new staff member.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now
	const query = `INSERT INTO staff (id, full_name, email, password_hash, role, active, pending_commission, paid_commission, total_commission, created_at, updated_at)
        VALUES (:id, :full_name, :email, :password_hash, :role, :active, :pending_commission, :paid_commission, :total_commission, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}
