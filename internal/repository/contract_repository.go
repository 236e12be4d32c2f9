package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

const contractColumns = `id, student_id, status, signed_at, signature_data, expires_at, created_at, updated_at`

// ContractRepository manages persistence for contracts.
type ContractRepository struct {
	db *sqlx.DB
}

// NewContractRepository constructs a ContractRepository.
func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// FindByID fetches a contract by ID.
func (r *ContractRepository) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	query := fmt.Sprintf("SELECT %s FROM contracts WHERE id = $1", contractColumns)
	var contract models.Contract
	if err := r.db.GetContext(ctx, &contract, query, id); err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindSignedByStudent returns the student's signed contract, newest first.
func (r *ContractRepository) FindSignedByStudent(ctx context.Context, studentID string) (*models.Contract, error) {
	query := fmt.Sprintf("SELECT %s FROM contracts WHERE student_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1", contractColumns)
	var contract models.Contract
	if err := r.db.GetContext(ctx, &contract, query, studentID, models.ContractStatusSigned); err != nil {
		return nil, err
	}
	return &contract, nil
}

// Create inserts a new contract.
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	if contract.ID == "" {
		contract.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = now
	}
	contract.UpdatedAt = now
	const query = `INSERT INTO contracts (id, student_id, status, signed_at, signature_data, expires_at, created_at, updated_at)
        VALUES (:id, :student_id, :status, :signed_at, :signature_data, :expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, contract); err != nil {
		return fmt.Errorf("create contract: %w", err)
	}
	return nil
}

// Update persists status and the one-time signature fields.
func (r *ContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	contract.UpdatedAt = time.Now().UTC()
	const query = `UPDATE contracts SET status = :status, signed_at = :signed_at, signature_data = :signature_data, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, contract); err != nil {
		return fmt.Errorf("update contract: %w", err)
	}
	return nil
}

// ExpireOverdue flips unsigned contracts past their expiry to expired and
// returns how many rows changed.
func (r *ContractRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE contracts SET status = $1, updated_at = $2
        WHERE status IN ($3, $4) AND expires_at < $2`
	res, err := r.db.ExecContext(ctx, query, models.ContractStatusExpired, now, models.ContractStatusDraft, models.ContractStatusPendingSignature)
	if err != nil {
		return 0, fmt.Errorf("expire contracts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
