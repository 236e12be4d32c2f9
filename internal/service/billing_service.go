package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type invoiceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	SettlePayment(ctx context.Context, invoice *models.Invoice, student *models.Student, entry *models.LedgerEntry, commission *models.Commission) error
	SettleRefund(ctx context.Context, invoice *models.Invoice, entry *models.LedgerEntry) error
}

type contractReader interface {
	FindSignedByStudent(ctx context.Context, studentID string) (*models.Contract, error)
}

type commissionChecker interface {
	ExistsForTrigger(ctx context.Context, staffID, studentID, contractID string) (bool, error)
}

// CreateInvoiceRequest holds input for issuing an invoice.
type CreateInvoiceRequest struct {
	StudentID string             `json:"student_id" validate:"required"`
	Type      models.InvoiceType `json:"type" validate:"required"`
	Amount    float64            `json:"amount" validate:"required,gt=0"`
}

// BillingService settles invoices against the ledger and owns commission
// triggering. Payments for the same student are serialised on a per-student
// mutex so the deposit threshold check and the at-most-once commission
// guarantee hold under concurrency.
type BillingService struct {
	invoices      invoiceRepository
	students      studentReader
	contracts     contractReader
	commissions   commissionChecker
	settings      settingsProvider
	notifications notifier
	audit         *auditTrail
	metrics       *MetricsService
	locks         *keyedMutex
	clock         clock.Clock
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewBillingService constructs a BillingService.
func NewBillingService(invoices invoiceRepository, students studentReader, contracts contractReader, commissions commissionChecker, settings settingsProvider, notifications notifier, auditRepo auditLogger, metrics *MetricsService, clk clock.Clock, logger *zap.Logger) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &BillingService{
		invoices:      invoices,
		students:      students,
		contracts:     contracts,
		commissions:   commissions,
		settings:      settings,
		notifications: notifications,
		audit:         newAuditTrail(auditRepo, logger),
		metrics:       metrics,
		locks:         newKeyedMutex(),
		clock:         clk,
		validator:     validator.New(),
		logger:        logger,
	}
}

// GetInvoice fetches one invoice.
func (s *BillingService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// ListInvoices returns a student's invoices.
func (s *BillingService) ListInvoices(ctx context.Context, studentID string) ([]models.Invoice, error) {
	return s.invoices.ListByStudent(ctx, studentID)
}

// CreateInvoice issues a pending invoice for a student.
func (s *BillingService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest, actorID string) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}

	invoice := &models.Invoice{
		StudentID: req.StudentID,
		Type:      req.Type,
		Status:    models.InvoiceStatusPending,
		Amount:    req.Amount,
	}
	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, "INVOICE_CREATE", "invoice", invoice.ID, req)
	return invoice, nil
}

// PayInvoice settles an invoice: the student's financial counters move, a
// ledger credit is appended, and for deposit invoices the commission
// precondition is evaluated against one settings snapshot taken at the
// start. When deposits reach the threshold while a signed contract exists
// and the assigned staff member has no commission yet for that contract,
// exactly one pending commission is created in the same transaction.
func (s *BillingService) PayInvoice(ctx context.Context, id, actorID string) (*models.Invoice, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusPending && invoice.Status != models.InvoiceStatusOverdue {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("invoice in %s cannot be paid", invoice.Status))
	}

	unlock := s.locks.Lock(invoice.StudentID)
	defer unlock()

	student, err := s.students.FindByID(ctx, invoice.StudentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invoice.Status = models.InvoiceStatusPaid
	invoice.PaidAt = &now

	if invoice.Type == models.InvoiceTypeDeposit {
		student.DepositPaid += invoice.Amount
	} else {
		student.BalancePaid += invoice.Amount
	}

	entry := &models.LedgerEntry{
		StudentID: invoice.StudentID,
		InvoiceID: &invoice.ID,
		Type:      models.LedgerEntryCredit,
		Category:  models.LedgerCategoryPayment,
		Amount:    invoice.Amount,
	}

	commission, err := s.commissionForPayment(ctx, invoice, student, settings)
	if err != nil {
		return nil, err
	}

	if err := s.invoices.SettlePayment(ctx, invoice, student, entry, commission); err != nil {
		return nil, err
	}

	s.metrics.ObserveLedgerEntry(string(models.LedgerEntryCredit))
	s.audit.Emit(ctx, actorID, models.AuditActionInvoicePay, "invoice", id, map[string]interface{}{
		"amount":               invoice.Amount,
		"commission_triggered": commission != nil,
	})

	if commission != nil {
		s.metrics.ObserveCommissionEvent("triggered")
		s.audit.Emit(ctx, actorID, models.AuditActionCommissionTrigger, "commission", commission.ID, map[string]interface{}{
			"staff_id": commission.StaffID,
			"amount":   commission.Amount,
		})
		s.audit.notify(ctx, s.notifications, &models.Notification{
			UserID:  commission.StaffID,
			Title:   "Commission earned",
			Message: fmt.Sprintf("Deposit threshold reached for %s", student.FullName),
			Type:    models.NotificationTypeInfo,
		})
	}
	return invoice, nil
}

// commissionForPayment evaluates the trigger precondition and returns the
// pending commission to insert, or nil when no commission is due.
func (s *BillingService) commissionForPayment(ctx context.Context, invoice *models.Invoice, student *models.Student, settings *models.SystemSettings) (*models.Commission, error) {
	if invoice.Type != models.InvoiceTypeDeposit {
		return nil, nil
	}
	if student.DepositPaid < settings.DepositThreshold {
		return nil, nil
	}
	if student.AssignedStaffID == nil {
		return nil, nil
	}

	contract, err := s.contracts.FindSignedByStudent(ctx, student.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !contract.IsActiveSigned() {
		return nil, nil
	}

	exists, err := s.commissions.ExistsForTrigger(ctx, *student.AssignedStaffID, student.ID, contract.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	return &models.Commission{
		ID:         newID(),
		StaffID:    *student.AssignedStaffID,
		StudentID:  student.ID,
		ContractID: contract.ID,
		Amount:     settings.CommissionAmount,
		Status:     models.CommissionStatusPending,
	}, nil
}

// RefundInvoice reverses a paid invoice with an explicit debit entry. The
// original credit is never mutated; the ledger stays append-only.
func (s *BillingService) RefundInvoice(ctx context.Context, id, reason, actorID string) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("invoice in %s cannot be refunded", invoice.Status))
	}

	unlock := s.locks.Lock(invoice.StudentID)
	defer unlock()

	invoice.Status = models.InvoiceStatusRefunded
	entry := &models.LedgerEntry{
		StudentID:  invoice.StudentID,
		InvoiceID:  &invoice.ID,
		Type:       models.LedgerEntryDebit,
		Category:   models.LedgerCategoryRefund,
		Amount:     invoice.Amount,
		IsReversal: true,
	}
	if reason != "" {
		entry.Note = &reason
	}

	if err := s.invoices.SettleRefund(ctx, invoice, entry); err != nil {
		return nil, err
	}

	s.metrics.ObserveLedgerEntry(string(models.LedgerEntryDebit))
	s.audit.Emit(ctx, actorID, models.AuditActionInvoiceRefund, "invoice", id, map[string]string{"reason": reason})
	return invoice, nil
}
