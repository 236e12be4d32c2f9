package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/export"
)

type commissionLister interface {
	ListByStaff(ctx context.Context, staffID string) ([]models.Commission, error)
}

type staffReader interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
}

// ExportService renders ledger statements and commission payroll reports as
// CSV or PDF downloads.
type ExportService struct {
	ledger      ledgerReader
	commissions commissionLister
	students    studentReader
	staff       staffReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(ledger ledgerReader, commissions commissionLister, students studentReader, staff staffReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		ledger:      ledger,
		commissions: commissions,
		students:    students,
		staff:       staff,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

func (s *ExportService) ledgerDataset(ctx context.Context, studentID string) (export.Dataset, float64, error) {
	entries, err := s.ledger.ListByStudent(ctx, studentID)
	if err != nil {
		return export.Dataset{}, 0, err
	}
	balance, err := s.ledger.BalanceForStudent(ctx, studentID)
	if err != nil {
		return export.Dataset{}, 0, err
	}

	data := export.Dataset{
		Headers: []string{"Date", "Type", "Category", "Amount", "Reversal", "Note"},
	}
	for _, entry := range entries {
		note := ""
		if entry.Note != nil {
			note = *entry.Note
		}
		data.Rows = append(data.Rows, map[string]string{
			"Date":     entry.CreatedAt.Format("2006-01-02 15:04"),
			"Type":     string(entry.Type),
			"Category": string(entry.Category),
			"Amount":   strconv.FormatFloat(entry.Amount, 'f', 2, 64),
			"Reversal": strconv.FormatBool(entry.IsReversal),
			"Note":     note,
		})
	}
	return data, balance, nil
}

// LedgerStatementCSV renders a student's ledger as CSV.
func (s *ExportService) LedgerStatementCSV(ctx context.Context, studentID string) ([]byte, error) {
	data, balance, err := s.ledgerDataset(ctx, studentID)
	if err != nil {
		return nil, err
	}
	data.Rows = append(data.Rows, map[string]string{
		"Date":   "BALANCE",
		"Amount": strconv.FormatFloat(balance, 'f', 2, 64),
	})
	return s.csv.Render(data)
}

// LedgerStatementPDF renders a student's ledger as a PDF statement.
func (s *ExportService) LedgerStatementPDF(ctx context.Context, studentID string) ([]byte, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	data, balance, err := s.ledgerDataset(ctx, studentID)
	if err != nil {
		return nil, err
	}
	data.Rows = append(data.Rows, map[string]string{
		"Date":   "BALANCE",
		"Amount": strconv.FormatFloat(balance, 'f', 2, 64),
	})
	title := fmt.Sprintf("Ledger statement - %s", student.FullName)
	return s.pdf.Render(data, title)
}

func (s *ExportService) commissionDataset(ctx context.Context, staffID string) (export.Dataset, error) {
	commissions, err := s.commissions.ListByStaff(ctx, staffID)
	if err != nil {
		return export.Dataset{}, err
	}
	data := export.Dataset{
		Headers: []string{"Date", "Student", "Contract", "Amount", "Status"},
	}
	for _, c := range commissions {
		data.Rows = append(data.Rows, map[string]string{
			"Date":     c.CreatedAt.Format("2006-01-02"),
			"Student":  c.StudentID,
			"Contract": c.ContractID,
			"Amount":   strconv.FormatFloat(c.Amount, 'f', 2, 64),
			"Status":   string(c.Status),
		})
	}
	return data, nil
}

// CommissionReportCSV renders a staff member's commission history as CSV.
func (s *ExportService) CommissionReportCSV(ctx context.Context, staffID string) ([]byte, error) {
	data, err := s.commissionDataset(ctx, staffID)
	if err != nil {
		return nil, err
	}
	return s.csv.Render(data)
}

// CommissionReportPDF renders a payroll report including bucket totals.
func (s *ExportService) CommissionReportPDF(ctx context.Context, staffID string) ([]byte, error) {
	staff, err := s.staff.FindByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	data, err := s.commissionDataset(ctx, staffID)
	if err != nil {
		return nil, err
	}
	data.Rows = append(data.Rows,
		map[string]string{"Student": "PENDING", "Amount": strconv.FormatFloat(staff.PendingCommission, 'f', 2, 64)},
		map[string]string{"Student": "PAID", "Amount": strconv.FormatFloat(staff.PaidCommission, 'f', 2, 64)},
		map[string]string{"Student": "TOTAL", "Amount": strconv.FormatFloat(staff.TotalCommission, 'f', 2, 64)},
	)
	title := fmt.Sprintf("Commission report - %s", staff.FullName)
	return s.pdf.Render(data, title)
}
