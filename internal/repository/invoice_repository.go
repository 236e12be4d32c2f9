package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupath/placement-api/internal/models"
)

const invoiceColumns = `id, student_id, type, status, amount, paid_at, created_at, updated_at`

// InvoiceRepository manages invoices and owns the settlement transactions
// that keep invoice, student financials, ledger, and commission rows
// consistent.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository constructs an InvoiceRepository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// FindByID fetches an invoice by ID.
func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE id = $1", invoiceColumns)
	var invoice models.Invoice
	if err := r.db.GetContext(ctx, &invoice, query, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListByStudent returns all invoices for a student.
func (r *InvoiceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE student_id = $1 ORDER BY created_at", invoiceColumns)
	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, studentID); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// Create inserts a new pending invoice.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	const query = `INSERT INTO invoices (id, student_id, type, status, amount, paid_at, created_at, updated_at)
        VALUES (:id, :student_id, :type, :status, :amount, :paid_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// SettlePayment applies a full payment settlement atomically: the invoice
// row, the student's financial counters, the ledger credit, and, when the
// commission precondition was met, the triggered commission plus its staff
// pending-bucket increment.
func (r *InvoiceRepository) SettlePayment(ctx context.Context, invoice *models.Invoice, student *models.Student, entry *models.LedgerEntry, commission *models.Commission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	invoice.UpdatedAt = now
	const updateInvoice = `UPDATE invoices SET status = :status, paid_at = :paid_at, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateInvoice, invoice); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("settle invoice: %w", err)
	}

	student.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, updateStudentQuery, student); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update student financials: %w", err)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	const insertEntry = `INSERT INTO ledger_entries (id, student_id, invoice_id, type, category, amount, is_reversal, note, created_at)
        VALUES (:id, :student_id, :invoice_id, :type, :category, :amount, :is_reversal, :note, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertEntry, entry); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("append payment entry: %w", err)
	}

	if commission != nil {
		if err := triggerCommissionTx(ctx, tx, commission, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment settlement: %w", err)
	}
	return nil
}

// SettleRefund marks the invoice refunded and appends the reversal debit in
// one transaction.
func (r *InvoiceRepository) SettleRefund(ctx context.Context, invoice *models.Invoice, entry *models.LedgerEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	invoice.UpdatedAt = now
	const updateInvoice = `UPDATE invoices SET status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateInvoice, invoice); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("refund invoice: %w", err)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	const insertEntry = `INSERT INTO ledger_entries (id, student_id, invoice_id, type, category, amount, is_reversal, note, created_at)
        VALUES (:id, :student_id, :invoice_id, :type, :category, :amount, :is_reversal, :note, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertEntry, entry); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("append refund entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refund settlement: %w", err)
	}
	return nil
}
