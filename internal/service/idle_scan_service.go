package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	"github.com/edupath/placement-api/pkg/config"
)

type idleLeadLister interface {
	ListIdle(ctx context.Context, cutoff time.Time) ([]models.Lead, error)
}

type idleApplicationLister interface {
	ListIdlePendingAdmin(ctx context.Context, cutoff time.Time) ([]models.UniversityApplication, error)
}

// IdleScanService sweeps for neglected work: leads without recent contact
// and applications stuck in admin review. Idle detection is derived purely
// from timestamps, so a sweep never mutates the scanned entities; it only
// emits notifications.
type IdleScanService struct {
	leads         idleLeadLister
	applications  idleApplicationLister
	students      studentReader
	notifications notifier
	cfg           config.IdleScanConfig
	clock         clock.Clock
	logger        *zap.Logger
}

// NewIdleScanService constructs an IdleScanService.
func NewIdleScanService(leads idleLeadLister, applications idleApplicationLister, students studentReader, notifications notifier, cfg config.IdleScanConfig, clk clock.Clock, logger *zap.Logger) *IdleScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &IdleScanService{
		leads:         leads,
		applications:  applications,
		students:      students,
		notifications: notifications,
		cfg:           cfg,
		clock:         clk,
		logger:        logger,
	}
}

// RunOnce performs a single sweep and returns how many alerts were emitted.
func (s *IdleScanService) RunOnce(ctx context.Context) (int, error) {
	now := s.clock.Now()
	alerts := 0

	leadCutoff := now.AddDate(0, 0, -s.thresholdDays(s.cfg.LeadThresholdDays, 7))
	idleLeads, err := s.leads.ListIdle(ctx, leadCutoff)
	if err != nil {
		return alerts, err
	}
	for _, lead := range idleLeads {
		if lead.AssignedTo == nil {
			continue
		}
		s.emit(ctx, *lead.AssignedTo, "Idle lead", fmt.Sprintf("No contact with %s since %s", lead.FullName, s.lastActivity(lead).Format("2006-01-02")))
		alerts++
	}

	appCutoff := now.AddDate(0, 0, -s.thresholdDays(s.cfg.AppThresholdDays, 3))
	idleApps, err := s.applications.ListIdlePendingAdmin(ctx, appCutoff)
	if err != nil {
		return alerts, err
	}
	for _, app := range idleApps {
		student, err := s.students.FindByID(ctx, app.StudentID)
		if err != nil || student.AssignedStaffID == nil {
			continue
		}
		s.emit(ctx, *student.AssignedStaffID, "Application stuck in review",
			fmt.Sprintf("%s's application to %s awaits admin review", student.FullName, app.UniversityName))
		alerts++
	}

	s.logger.Info("idle scan finished", zap.Int("alerts", alerts), zap.Int("idle_leads", len(idleLeads)), zap.Int("idle_applications", len(idleApps)))
	return alerts, nil
}

func (s *IdleScanService) emit(ctx context.Context, userID, title, message string) {
	n := &models.Notification{
		UserID:         userID,
		Title:          title,
		Message:        message,
		Type:           models.NotificationTypeIdleAlert,
		ActionRequired: true,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Warn("failed to emit idle alert", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *IdleScanService) thresholdDays(configured, fallback int) int {
	if configured <= 0 {
		return fallback
	}
	return configured
}

func (s *IdleScanService) lastActivity(lead models.Lead) time.Time {
	if lead.LastContactAt != nil {
		return *lead.LastContactAt
	}
	return lead.CreatedAt
}
