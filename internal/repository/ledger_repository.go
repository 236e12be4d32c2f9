package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

const ledgerColumns = `id, student_id, invoice_id, type, category, amount, is_reversal, note, created_at`

// LedgerRepository appends and reads ledger entries. There is deliberately
// no update or delete: the ledger is append-only.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs a LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts a new immutable entry.
func (r *LedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO ledger_entries (id, student_id, invoice_id, type, category, amount, is_reversal, note, created_at)
        VALUES (:id, :student_id, :invoice_id, :type, :category, :amount, :is_reversal, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// ListByStudent returns all entries for a student in insertion order.
func (r *LedgerRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LedgerEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM ledger_entries WHERE student_id = $1 ORDER BY created_at", ledgerColumns)
	var entries []models.LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

// BalanceForStudent computes credits minus debits for a student straight
// from the entries; the ledger is the source of truth for balances.
func (r *LedgerRepository) BalanceForStudent(ctx context.Context, studentID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(CASE WHEN type = $2 THEN amount ELSE -amount END), 0)
        FROM ledger_entries WHERE student_id = $1`
	var balance float64
	if err := r.db.GetContext(ctx, &balance, query, studentID, models.LedgerEntryCredit); err != nil {
		return 0, fmt.Errorf("ledger balance: %w", err)
	}
	return balance, nil
}
