package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type commissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Commission, error)
	ListByStaff(ctx context.Context, staffID string) ([]models.Commission, error)
	MarkPaid(ctx context.Context, commission *models.Commission) error
	MarkVoided(ctx context.Context, commission *models.Commission) error
	Clawback(ctx context.Context, original, adjustment *models.Commission) error
}

// CommissionService runs the commission lifecycle after triggering: payroll
// payout, voiding, and clawback of already-paid commissions.
type CommissionService struct {
	repo    commissionRepository
	audit   *auditTrail
	metrics *MetricsService
	clock   clock.Clock
	logger  *zap.Logger
}

// NewCommissionService constructs a CommissionService.
func NewCommissionService(repo commissionRepository, auditRepo auditLogger, metrics *MetricsService, clk clock.Clock, logger *zap.Logger) *CommissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &CommissionService{
		repo:    repo,
		audit:   newAuditTrail(auditRepo, logger),
		metrics: metrics,
		clock:   clk,
		logger:  logger,
	}
}

// Get fetches one commission.
func (s *CommissionService) Get(ctx context.Context, id string) (*models.Commission, error) {
	commission, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return commission, nil
}

// ListByStaff returns a staff member's commission history.
func (s *CommissionService) ListByStaff(ctx context.Context, staffID string) ([]models.Commission, error) {
	return s.repo.ListByStaff(ctx, staffID)
}

// Pay settles a pending commission at payroll: the record becomes paid and
// the amount moves from the staff member's pending bucket into paid and
// total.
func (s *CommissionService) Pay(ctx context.Context, id, actorID string) (*models.Commission, error) {
	commission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if commission.Status != models.CommissionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("commission in %s cannot be paid", commission.Status))
	}

	now := s.clock.Now()
	commission.Status = models.CommissionStatusPaid
	commission.PaidAt = &now
	if err := s.repo.MarkPaid(ctx, commission); err != nil {
		return nil, err
	}

	s.metrics.ObserveCommissionEvent("paid")
	s.audit.Emit(ctx, actorID, models.AuditActionCommissionPay, "commission", id, map[string]float64{"amount": commission.Amount})
	return commission, nil
}

// Void cancels a commission. A pending commission is voided in place with
// its bucket increment reversed. A paid commission cannot be rewritten: it
// is marked clawback and a fresh pending record with the negated amount is
// created for the next payroll cycle. A missing ID is a silent no-op.
func (s *CommissionService) Void(ctx context.Context, id, reason, actorID string) (*models.Commission, error) {
	commission, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	switch commission.Status {
	case models.CommissionStatusPending:
		commission.Status = models.CommissionStatusVoided
		if reason != "" {
			commission.Reason = &reason
		}
		if err := s.repo.MarkVoided(ctx, commission); err != nil {
			return nil, err
		}
		s.metrics.ObserveCommissionEvent("voided")
		s.audit.Emit(ctx, actorID, models.AuditActionCommissionVoid, "commission", id, map[string]string{"reason": reason})
		return commission, nil

	case models.CommissionStatusPaid:
		commission.Status = models.CommissionStatusClawback
		if reason != "" {
			commission.Reason = &reason
		}
		adjustment := &models.Commission{
			StaffID:    commission.StaffID,
			StudentID:  commission.StudentID,
			ContractID: commission.ContractID,
			Amount:     -commission.Amount,
			Status:     models.CommissionStatusPending,
		}
		if reason != "" {
			adjustment.Reason = &reason
		}
		if err := s.repo.Clawback(ctx, commission, adjustment); err != nil {
			return nil, err
		}
		s.metrics.ObserveCommissionEvent("clawback")
		s.audit.Emit(ctx, actorID, models.AuditActionCommissionVoid, "commission", id, map[string]interface{}{
			"reason":        reason,
			"adjustment_id": adjustment.ID,
		})
		return adjustment, nil

	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("commission in %s cannot be voided", commission.Status))
	}
}
