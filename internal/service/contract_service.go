package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type contractStore interface {
	FindByID(ctx context.Context, id string) (*models.Contract, error)
	FindSignedByStudent(ctx context.Context, studentID string) (*models.Contract, error)
	Create(ctx context.Context, contract *models.Contract) error
	Update(ctx context.Context, contract *models.Contract) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// ContractService manages the contract lifecycle. SignedAt and the
// signature payload are written exactly once; a second signing attempt is a
// conflict.
type ContractService struct {
	repo     contractStore
	students studentReader
	settings settingsProvider
	audit    *auditTrail
	clock    clock.Clock
	logger   *zap.Logger
}

// NewContractService constructs a ContractService.
func NewContractService(repo contractStore, students studentReader, settings settingsProvider, auditRepo auditLogger, clk clock.Clock, logger *zap.Logger) *ContractService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &ContractService{
		repo:     repo,
		students: students,
		settings: settings,
		audit:    newAuditTrail(auditRepo, logger),
		clock:    clk,
		logger:   logger,
	}
}

// Get fetches one contract.
func (s *ContractService) Get(ctx context.Context, id string) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// Create issues a contract awaiting signature. The expiry window comes from
// the settings snapshot taken at creation time.
func (s *ContractService) Create(ctx context.Context, studentID, actorID string) (*models.Contract, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	contract := &models.Contract{
		StudentID: studentID,
		Status:    models.ContractStatusPendingSignature,
		ExpiresAt: now.AddDate(0, 0, settings.ContractExpiryDays),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, "CONTRACT_CREATE", "contract", contract.ID, map[string]string{"student_id": studentID})
	return contract, nil
}

// Sign records the signature exactly once and moves the contract to signed.
func (s *ContractService) Sign(ctx context.Context, id, signatureData, actorID string) (*models.Contract, error) {
	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.SignedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "contract is already signed")
	}
	if contract.Status != models.ContractStatusPendingSignature {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("contract in %s cannot be signed", contract.Status))
	}
	now := s.clock.Now()
	if contract.ExpiresAt.Before(now) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "contract has expired")
	}

	contract.Status = models.ContractStatusSigned
	contract.SignedAt = &now
	contract.SignatureData = &signatureData
	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionContractSign, "contract", id, nil)
	return contract, nil
}

// SignedForStudent returns the student's active signed contract, or nil
// when none exists.
func (s *ContractService) SignedForStudent(ctx context.Context, studentID string) (*models.Contract, error) {
	contract, err := s.repo.FindSignedByStudent(ctx, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// ExpireOverdue sweeps unsigned contracts past their expiry window.
func (s *ContractService) ExpireOverdue(ctx context.Context) (int64, error) {
	expired, err := s.repo.ExpireOverdue(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info("expired overdue contracts", zap.Int64("count", expired))
	}
	return expired, nil
}
