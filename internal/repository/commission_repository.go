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

const commissionColumns = `id, staff_id, student_id, contract_id, amount, status, reason, paid_at, created_at, updated_at`

const insertCommissionQuery = `INSERT INTO commissions (id, staff_id, student_id, contract_id, amount, status, reason, paid_at, created_at, updated_at)
    VALUES (:id, :staff_id, :student_id, :contract_id, :amount, :status, :reason, :paid_at, :created_at, :updated_at)`

const updateCommissionQuery = `UPDATE commissions SET status = :status, reason = :reason, paid_at = :paid_at, updated_at = :updated_at WHERE id = :id`

const bucketQuery = `UPDATE staff SET pending_commission = pending_commission + $2, paid_commission = paid_commission + $3,
    total_commission = total_commission + $4, updated_at = $5 WHERE id = $1`

// CommissionRepository manages commissions and owns the transactions that
// keep commission rows and staff buckets consistent.
type CommissionRepository struct {
	db *sqlx.DB
}

// NewCommissionRepository constructs a CommissionRepository.
func NewCommissionRepository(db *sqlx.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// FindByID fetches a commission by ID.
func (r *CommissionRepository) FindByID(ctx context.Context, id string) (*models.Commission, error) {
	query := fmt.Sprintf("SELECT %s FROM commissions WHERE id = $1", commissionColumns)
	var commission models.Commission
	if err := r.db.GetContext(ctx, &commission, query, id); err != nil {
		return nil, err
	}
	return &commission, nil
}

// ListByStaff returns commissions for one staff member, newest first.
func (r *CommissionRepository) ListByStaff(ctx context.Context, staffID string) ([]models.Commission, error) {
	query := fmt.Sprintf("SELECT %s FROM commissions WHERE staff_id = $1 ORDER BY created_at DESC", commissionColumns)
	var commissions []models.Commission
	if err := r.db.SelectContext(ctx, &commissions, query, staffID); err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	return commissions, nil
}

// ExistsForTrigger reports whether a commission already exists for the
// (staff, student, contract) combination, in any status.
func (r *CommissionRepository) ExistsForTrigger(ctx context.Context, staffID, studentID, contractID string) (bool, error) {
	var exists int
	const query = `SELECT 1 FROM commissions WHERE staff_id = $1 AND student_id = $2 AND contract_id = $3 LIMIT 1`
	if err := r.db.GetContext(ctx, &exists, query, staffID, studentID, contractID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check commission trigger: %w", err)
	}
	return true, nil
}

// triggerCommissionTx inserts a pending commission and increments the staff
// member's pending bucket inside the caller's transaction. The commission
// trigger always rides the payment settlement transaction.
func triggerCommissionTx(ctx context.Context, tx *sqlx.Tx, commission *models.Commission, now time.Time) error {
	if commission.ID == "" {
		commission.ID = uuid.NewString()
	}
	if commission.CreatedAt.IsZero() {
		commission.CreatedAt = now
	}
	commission.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, insertCommissionQuery, commission); err != nil {
		return fmt.Errorf("trigger commission: %w", err)
	}
	if _, err := tx.ExecContext(ctx, bucketQuery, commission.StaffID, commission.Amount, 0.0, 0.0, now); err != nil {
		return fmt.Errorf("increment pending bucket: %w", err)
	}
	return nil
}

// MarkPaid moves the amount from pending into paid and total buckets while
// transitioning the record, atomically.
func (r *CommissionRepository) MarkPaid(ctx context.Context, commission *models.Commission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	commission.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, updateCommissionQuery, commission); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("mark commission paid: %w", err)
	}
	if _, err := tx.ExecContext(ctx, bucketQuery, commission.StaffID, -commission.Amount, commission.Amount, commission.Amount, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("move commission buckets: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit commission payment: %w", err)
	}
	return nil
}

// MarkVoided reverses the pending bucket increment while transitioning a
// pending record to voided.
func (r *CommissionRepository) MarkVoided(ctx context.Context, commission *models.Commission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	commission.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, updateCommissionQuery, commission); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("void commission: %w", err)
	}
	if _, err := tx.ExecContext(ctx, bucketQuery, commission.StaffID, -commission.Amount, 0.0, 0.0, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("reverse pending bucket: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit commission void: %w", err)
	}
	return nil
}

// Clawback transitions a paid commission to clawback and inserts the
// negative-amount pending adjustment for the next payroll cycle, crediting
// the pending bucket with the (negative) adjustment amount.
func (r *CommissionRepository) Clawback(ctx context.Context, original, adjustment *models.Commission) error {
	if adjustment.ID == "" {
		adjustment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if adjustment.CreatedAt.IsZero() {
		adjustment.CreatedAt = now
	}
	adjustment.UpdatedAt = now
	original.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx, updateCommissionQuery, original); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("mark commission clawback: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, insertCommissionQuery, adjustment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert clawback adjustment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, bucketQuery, adjustment.StaffID, adjustment.Amount, 0.0, 0.0, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("apply clawback bucket: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clawback: %w", err)
	}
	return nil
}
