package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/internal/workflow"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type leadRepository interface {
	List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error)
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error
	TouchContact(ctx context.Context, id string, ts time.Time) error
	ConvertToStudent(ctx context.Context, lead *models.Lead, student *models.Student) error
	ListIdle(ctx context.Context, cutoff time.Time) ([]models.Lead, error)
}

// CreateLeadRequest holds input for registering a new lead.
type CreateLeadRequest struct {
	FullName   string  `json:"full_name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Email      string  `json:"email" validate:"omitempty,email"`
	Source     string  `json:"source"`
	AssignedTo *string `json:"assigned_to"`
}

// LeadService manages the lead lifecycle up to conversion.
type LeadService struct {
	repo          leadRepository
	notifications notifier
	audit         *auditTrail
	metrics       *MetricsService
	clock         clock.Clock
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewLeadService constructs a LeadService.
func NewLeadService(repo leadRepository, notifications notifier, auditRepo auditLogger, metrics *MetricsService, clk clock.Clock, logger *zap.Logger) *LeadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &LeadService{
		repo:          repo,
		notifications: notifications,
		audit:         newAuditTrail(auditRepo, logger),
		metrics:       metrics,
		clock:         clk,
		validator:     validator.New(),
		logger:        logger,
	}
}

// List returns leads with pagination metadata.
func (s *LeadService) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, *models.Pagination, error) {
	leads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return leads, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches one lead.
func (s *LeadService) Get(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// Create registers a new lead in status new.
func (s *LeadService) Create(ctx context.Context, req CreateLeadRequest, actorID string) (*models.Lead, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lead")
	}
	lead := &models.Lead{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Email:      req.Email,
		Status:     models.LeadStatusNew,
		Source:     req.Source,
		AssignedTo: req.AssignedTo,
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, "LEAD_CREATE", "lead", lead.ID, req)
	return lead, nil
}

// ChangeStatus moves a lead along the declared transition table. Any move
// the table does not list is rejected, including all moves out of the
// terminal converted and lost states.
func (s *LeadService) ChangeStatus(ctx context.Context, id string, target models.LeadStatus, actorID string) (*models.Lead, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := workflow.CanTransitionLead(lead.Status, target)
	s.metrics.ObserveTransition("lead", allowed)
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("lead cannot move from %s to %s", lead.Status, target))
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionLeadStatusChange, "lead", id, map[string]string{
		"from": string(lead.Status),
		"to":   string(target),
	})
	lead.Status = target
	return lead, nil
}

// RecordContact stamps the lead's last contact time, resetting the idle
// detector for it.
func (s *LeadService) RecordContact(ctx context.Context, id string, actorID string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.TouchContact(ctx, id, s.clock.Now()); err != nil {
		return err
	}
	s.audit.Emit(ctx, actorID, "LEAD_CONTACT", "lead", id, nil)
	return nil
}

// Convert turns a lead into a student atomically. A missing or
// already-converted lead is rejected without creating anything.
func (s *LeadService) Convert(ctx context.Context, id string, assignedStaffID *string, actorID string) (*models.Student, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := workflow.CanTransitionLead(lead.Status, models.LeadStatusConverted)
	s.metrics.ObserveTransition("lead", allowed)
	if !allowed {
		if lead.Status == models.LeadStatusConverted {
			return nil, appErrors.Clone(appErrors.ErrConflict, "lead is already converted")
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("lead cannot be converted from %s", lead.Status))
	}

	now := s.clock.Now()
	staffID := assignedStaffID
	if staffID == nil {
		staffID = lead.AssignedTo
	}
	student := &models.Student{
		FullName:        lead.FullName,
		Phone:           lead.Phone,
		Email:           lead.Email,
		Status:          models.StudentStatusPendingContract,
		CurrentStep:     workflow.StepForStatus(models.StudentStatusPendingContract),
		AssignedStaffID: staffID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	student.ID = newID()

	lead.Status = models.LeadStatusConverted
	lead.ConvertedToStudentID = &student.ID
	lead.UpdatedAt = now

	if err := s.repo.ConvertToStudent(ctx, lead, student); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionLeadConvert, "lead", id, map[string]string{"student_id": student.ID})
	if staffID != nil {
		s.audit.notify(ctx, s.notifications, &models.Notification{
			UserID:         *staffID,
			Title:          "Lead converted",
			Message:        fmt.Sprintf("%s is now a student awaiting contract", lead.FullName),
			Type:           models.NotificationTypeInfo,
			ActionRequired: true,
		})
	}
	return student, nil
}

// IdleLeads returns non-terminal leads without qualifying activity for the
// given number of days.
func (s *LeadService) IdleLeads(ctx context.Context, thresholdDays int) ([]models.Lead, error) {
	if thresholdDays <= 0 {
		thresholdDays = 7
	}
	cutoff := s.clock.Now().AddDate(0, 0, -thresholdDays)
	return s.repo.ListIdle(ctx, cutoff)
}
