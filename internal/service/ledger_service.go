package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
)

type ledgerReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.LedgerEntry, error)
	BalanceForStudent(ctx context.Context, studentID string) (float64, error)
}

// LedgerService reads the append-only ledger. All writes happen inside the
// billing settlements; there is intentionally no mutation surface here.
type LedgerService struct {
	repo   ledgerReader
	logger *zap.Logger
}

// NewLedgerService constructs a LedgerService.
func NewLedgerService(repo ledgerReader, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{repo: repo, logger: logger}
}

// Entries returns a student's ledger entries in insertion order.
func (s *LedgerService) Entries(ctx context.Context, studentID string) ([]models.LedgerEntry, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

// Balance returns credits minus debits for a student.
func (s *LedgerService) Balance(ctx context.Context, studentID string) (float64, error) {
	return s.repo.BalanceForStudent(ctx, studentID)
}
