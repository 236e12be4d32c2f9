package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type mockInvoiceRepo struct {
	invoices    map[string]*models.Invoice
	students    *mockStudentStore
	entries     []models.LedgerEntry
	commissions []models.Commission
}

func newMockInvoiceRepo(students *mockStudentStore, invoices ...*models.Invoice) *mockInvoiceRepo {
	m := &mockInvoiceRepo{invoices: make(map[string]*models.Invoice), students: students}
	for _, inv := range invoices {
		m.invoices[inv.ID] = inv
	}
	return m
}

func (m *mockInvoiceRepo) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		clone := *inv
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockInvoiceRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range m.invoices {
		if inv.StudentID == studentID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = "new-invoice"
	}
	clone := *invoice
	m.invoices[invoice.ID] = &clone
	return nil
}

func (m *mockInvoiceRepo) SettlePayment(ctx context.Context, invoice *models.Invoice, student *models.Student, entry *models.LedgerEntry, commission *models.Commission) error {
	invoiceClone := *invoice
	m.invoices[invoice.ID] = &invoiceClone
	studentClone := *student
	m.students.students[student.ID] = &studentClone
	m.entries = append(m.entries, *entry)
	if commission != nil {
		m.commissions = append(m.commissions, *commission)
	}
	return nil
}

func (m *mockInvoiceRepo) SettleRefund(ctx context.Context, invoice *models.Invoice, entry *models.LedgerEntry) error {
	clone := *invoice
	m.invoices[invoice.ID] = &clone
	m.entries = append(m.entries, *entry)
	return nil
}

type mockContractReader struct {
	signed map[string]*models.Contract
}

func (m *mockContractReader) FindSignedByStudent(ctx context.Context, studentID string) (*models.Contract, error) {
	if c, ok := m.signed[studentID]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

type mockCommissionChecker struct {
	existing map[string]bool
}

func (m *mockCommissionChecker) ExistsForTrigger(ctx context.Context, staffID, studentID, contractID string) (bool, error) {
	return m.existing[staffID+studentID+contractID], nil
}

type billingFixture struct {
	svc         *BillingService
	invoices    *mockInvoiceRepo
	students    *mockStudentStore
	contracts   *mockContractReader
	commissions *mockCommissionChecker
	settings    *mockSettingsProvider
	audit       *mockAuditRepo
	notifier    *mockNotifier
}

func newBillingFixture(student *models.Student, invoices ...*models.Invoice) *billingFixture {
	students := newMockStudentStore(student)
	invoiceRepo := newMockInvoiceRepo(students, invoices...)
	contracts := &mockContractReader{signed: make(map[string]*models.Contract)}
	commissions := &mockCommissionChecker{existing: make(map[string]bool)}
	settings := &mockSettingsProvider{settings: defaultTestSettings()}
	audit := &mockAuditRepo{}
	notifications := &mockNotifier{}
	fixed := clock.Fixed{Time: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	svc := NewBillingService(invoiceRepo, students, contracts, commissions, settings, notifications, audit, nil, fixed, nil)
	return &billingFixture{
		svc: svc, invoices: invoiceRepo, students: students, contracts: contracts,
		commissions: commissions, settings: settings, audit: audit, notifier: notifications,
	}
}

func TestPayInvoiceAppendsCreditAndUpdatesDeposit(t *testing.T) {
	f := newBillingFixture(
		&models.Student{ID: "s1", Status: models.StudentStatusContractSigned},
		&models.Invoice{ID: "i1", StudentID: "s1", Type: models.InvoiceTypeDeposit, Status: models.InvoiceStatusPending, Amount: 500},
	)

	invoice, err := f.svc.PayInvoice(context.Background(), "i1", "accountant")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	require.NotNil(t, invoice.PaidAt)

	assert.Equal(t, 500.0, f.students.students["s1"].DepositPaid)
	require.Len(t, f.invoices.entries, 1)
	entry := f.invoices.entries[0]
	assert.Equal(t, models.LedgerEntryCredit, entry.Type)
	assert.Equal(t, models.LedgerCategoryPayment, entry.Category)
	assert.Equal(t, 500.0, entry.Amount)
	assert.False(t, entry.IsReversal)
	assert.Empty(t, f.invoices.commissions, "below threshold, no commission")
}

func TestPayInvoiceTriggersCommissionAtThreshold(t *testing.T) {
	f := newBillingFixture(
		&models.Student{ID: "s1", Status: models.StudentStatusContractSigned, AssignedStaffID: strPtr("staff-1"), DepositPaid: 500},
		&models.Invoice{ID: "i2", StudentID: "s1", Type: models.InvoiceTypeDeposit, Status: models.InvoiceStatusPending, Amount: 300},
	)
	f.contracts.signed["s1"] = &models.Contract{ID: "ct1", StudentID: "s1", Status: models.ContractStatusSigned}

	_, err := f.svc.PayInvoice(context.Background(), "i2", "accountant")
	require.NoError(t, err)

	assert.Equal(t, 800.0, f.students.students["s1"].DepositPaid)
	require.Len(t, f.invoices.commissions, 1)
	commission := f.invoices.commissions[0]
	assert.Equal(t, "staff-1", commission.StaffID)
	assert.Equal(t, "ct1", commission.ContractID)
	assert.Equal(t, 200.0, commission.Amount)
	assert.Equal(t, models.CommissionStatusPending, commission.Status)
	assert.Contains(t, f.audit.actions(), models.AuditActionCommissionTrigger)
	require.Len(t, f.notifier.sent, 1)
}

func TestPayInvoiceCommissionAtMostOnce(t *testing.T) {
	f := newBillingFixture(
		&models.Student{ID: "s1", Status: models.StudentStatusContractSigned, AssignedStaffID: strPtr("staff-1"), DepositPaid: 800},
		&models.Invoice{ID: "i3", StudentID: "s1", Type: models.InvoiceTypeDeposit, Status: models.InvoiceStatusPending, Amount: 200},
	)
	f.contracts.signed["s1"] = &models.Contract{ID: "ct1", StudentID: "s1", Status: models.ContractStatusSigned}
	f.commissions.existing["staff-1"+"s1"+"ct1"] = true

	_, err := f.svc.PayInvoice(context.Background(), "i3", "accountant")
	require.NoError(t, err)
	assert.Empty(t, f.invoices.commissions, "existing commission for the tuple blocks a second trigger")
}

func TestPayInvoiceNoCommissionWithoutSignedContract(t *testing.T) {
	f := newBillingFixture(
		&models.Student{ID: "s1", Status: models.StudentStatusPendingContract, AssignedStaffID: strPtr("staff-1"), DepositPaid: 700},
		&models.Invoice{ID: "i4", StudentID: "s1", Type: models.InvoiceTypeDeposit, Status: models.InvoiceStatusPending, Amount: 100},
	)

	_, err := f.svc.PayInvoice(context.Background(), "i4", "accountant")
	require.NoError(t, err)
	assert.Empty(t, f.invoices.commissions)
}

func TestPayInvoiceNoCommissionForBalancePayments(t *testing.T) {
	f := newBillingFixture(
		&models.Student{ID: "s1", Status: models.StudentStatusContractSigned, AssignedStaffID: strPtr("staff-1"), DepositPaid: 800},
		&models.Invoice{ID: "i5", StudentID: "s1", Type: models.InvoiceTypeBalance, Status: models.InvoiceStatusPending, Amount: 1000},
	)
	f.contracts.signed["s1"] = &models.Contract{ID: "ct1", StudentID: "s1", Status: models.ContractStatusSigned}

	_, err := f.svc.PayInvoice(context.Background(), "i5", "accountant")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, f.students.students["s1"].BalancePaid)
	assert.Equal(t, 800.0, f.students.students["s1"].DepositPaid)
	assert.Empty(t, f.invoices.commissions)
}

func TestPayInvoiceRejectsAlreadyPaid(t *testing.T) {
	f := newBillingFixture(
		&models.Student{ID: "s1"},
		&models.Invoice{ID: "i6", StudentID: "s1", Type: models.InvoiceTypeDeposit, Status: models.InvoiceStatusPaid, Amount: 100},
	)

	_, err := f.svc.PayInvoice(context.Background(), "i6", "accountant")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Empty(t, f.invoices.entries)
}

func TestPayInvoiceReadsSettingsOnce(t *testing.T) {
	f := newBillingFixture(
		&models.Student{ID: "s1", Status: models.StudentStatusContractSigned},
		&models.Invoice{ID: "i7", StudentID: "s1", Type: models.InvoiceTypeDeposit, Status: models.InvoiceStatusPending, Amount: 100},
	)

	_, err := f.svc.PayInvoice(context.Background(), "i7", "accountant")
	require.NoError(t, err)
	assert.Equal(t, 1, f.settings.calls)
}

func TestRefundInvoiceAppendsReversalDebit(t *testing.T) {
	paidAt := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	f := newBillingFixture(
		&models.Student{ID: "s1"},
		&models.Invoice{ID: "i8", StudentID: "s1", Type: models.InvoiceTypeDeposit, Status: models.InvoiceStatusPaid, Amount: 500, PaidAt: &paidAt},
	)

	invoice, err := f.svc.RefundInvoice(context.Background(), "i8", "visa denied", "accountant")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusRefunded, invoice.Status)

	require.Len(t, f.invoices.entries, 1)
	entry := f.invoices.entries[0]
	assert.Equal(t, models.LedgerEntryDebit, entry.Type)
	assert.Equal(t, models.LedgerCategoryRefund, entry.Category)
	assert.True(t, entry.IsReversal)
	assert.Equal(t, 500.0, entry.Amount)
	assert.Equal(t, "visa denied", *entry.Note)
}

func TestRefundInvoiceRequiresPaid(t *testing.T) {
	f := newBillingFixture(
		&models.Student{ID: "s1"},
		&models.Invoice{ID: "i9", StudentID: "s1", Type: models.InvoiceTypeDeposit, Status: models.InvoiceStatusPending, Amount: 500},
	)

	_, err := f.svc.RefundInvoice(context.Background(), "i9", "typo", "accountant")
	require.Error(t, err)
	assert.Empty(t, f.invoices.entries)
}
