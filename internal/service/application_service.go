package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/internal/workflow"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type applicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.UniversityApplication, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.UniversityApplication, error)
	CountByBatch(ctx context.Context, studentID string, batch int) (int, error)
	ExistsForUniversity(ctx context.Context, studentID, universityName string) (bool, error)
	Create(ctx context.Context, app *models.UniversityApplication) error
	UpdateWithStudent(ctx context.Context, app *models.UniversityApplication, student *models.Student) error
	UpdateWithStudentLockingDocuments(ctx context.Context, app *models.UniversityApplication, student *models.Student) error
	ListIdlePendingAdmin(ctx context.Context, cutoff time.Time) ([]models.UniversityApplication, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CreateApplicationRequest holds input for a new university application.
type CreateApplicationRequest struct {
	StudentID      string `json:"student_id" validate:"required"`
	UniversityName string `json:"university_name" validate:"required"`
	Program        string `json:"program" validate:"required"`
	Batch          int    `json:"batch" validate:"required"`
}

// ApplicationService manages university applications and the student-side
// cascades they drive. Every multi-entity change is pre-validated in full
// before any row is touched, then persisted in one repository transaction.
type ApplicationService struct {
	repo          applicationRepository
	students      studentReader
	notifications notifier
	audit         *auditTrail
	metrics       *MetricsService
	locks         *keyedMutex
	clock         clock.Clock
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(repo applicationRepository, students studentReader, notifications notifier, auditRepo auditLogger, metrics *MetricsService, clk clock.Clock, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &ApplicationService{
		repo:          repo,
		students:      students,
		notifications: notifications,
		audit:         newAuditTrail(auditRepo, logger),
		metrics:       metrics,
		locks:         newKeyedMutex(),
		clock:         clk,
		validator:     validator.New(),
		logger:        logger,
	}
}

// Get fetches one application.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.UniversityApplication, error) {
	app, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ListByStudent returns a student's applications.
func (s *ApplicationService) ListByStudent(ctx context.Context, studentID string) ([]models.UniversityApplication, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

// Create opens a draft application under the 2+3 batch strategy: at most two
// universities in the first batch, three in the second, and no university
// twice across batches.
func (s *ApplicationService) Create(ctx context.Context, req CreateApplicationRequest, actorID string) (*models.UniversityApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application")
	}

	limit := 0
	switch req.Batch {
	case models.BatchFirst:
		limit = models.BatchFirstMax
	case models.BatchSecond:
		limit = models.BatchSecondMax
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown batch %d", req.Batch))
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}

	count, err := s.repo.CountByBatch(ctx, req.StudentID, req.Batch)
	if err != nil {
		return nil, err
	}
	if count >= limit {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("batch %d already has %d applications", req.Batch, count))
	}

	exists, err := s.repo.ExistsForUniversity(ctx, req.StudentID, req.UniversityName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("student already applies to %s", req.UniversityName))
	}

	app := &models.UniversityApplication{
		StudentID:      req.StudentID,
		UniversityName: req.UniversityName,
		Program:        req.Program,
		Batch:          req.Batch,
		Status:         models.ApplicationStatusDraft,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, "APPLICATION_CREATE", "application", app.ID, req)
	return app, nil
}

// SubmitToAdmin hands a draft to internal review and locks the student's
// entire profile while the review is in flight.
func (s *ApplicationService) SubmitToAdmin(ctx context.Context, id, actorID string) (*models.UniversityApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(app.StudentID)
	defer unlock()

	if err := s.guardApplication(app, models.ApplicationStatusPendingAdmin); err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, app.StudentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	app.Status = models.ApplicationStatusPendingAdmin
	app.SubmittedToAdminAt = &now

	student.IsProfileLocked = true
	student.LockedAt = &now
	if actorID != "" {
		student.LockedBy = &actorID
	}
	student.UnlockedFields = nil

	if err := s.repo.UpdateWithStudent(ctx, app, student); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionAppSubmitAdmin, "application", id, nil)
	if student.AssignedStaffID != nil {
		s.audit.notify(ctx, s.notifications, &models.Notification{
			UserID:         *student.AssignedStaffID,
			Title:          "Application pending review",
			Message:        fmt.Sprintf("%s submitted to %s awaits admin review", student.FullName, app.UniversityName),
			Type:           models.NotificationTypePendingReview,
			ActionRequired: true,
		})
	}
	return app, nil
}

// Reject returns an application from admin review. The student's profile is
// fully unlocked and the student cascades to returned_by_admin so the
// counselor can rework the submission.
func (s *ApplicationService) Reject(ctx context.Context, id, reason, actorID string) (*models.UniversityApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(app.StudentID)
	defer unlock()

	if err := s.guardApplication(app, models.ApplicationStatusRejected); err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, app.StudentID)
	if err != nil {
		return nil, err
	}
	if err := s.cascadeStudent(student, models.StudentStatusReturnedByAdmin); err != nil {
		return nil, err
	}

	app.Status = models.ApplicationStatusRejected
	if reason != "" {
		app.ReturnReason = &reason
	}

	student.IsProfileLocked = false
	student.LockedAt = nil
	student.LockedBy = nil
	student.UnlockedFields = nil

	if err := s.repo.UpdateWithStudent(ctx, app, student); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionAppReject, "application", id, map[string]string{"reason": reason})
	return app, nil
}

// SubmitToUniversity forwards a reviewed application to the university and
// locks every document of the student for the external review window.
func (s *ApplicationService) SubmitToUniversity(ctx context.Context, id, actorID string) (*models.UniversityApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(app.StudentID)
	defer unlock()

	if err := s.guardApplication(app, models.ApplicationStatusSubmittedToUni); err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, app.StudentID)
	if err != nil {
		return nil, err
	}
	if err := s.cascadeStudent(student, models.StudentStatusSubmittedToUni); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	app.Status = models.ApplicationStatusSubmittedToUni
	app.SubmittedToUniAt = &now

	if err := s.repo.UpdateWithStudentLockingDocuments(ctx, app, student); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionAppSubmitUni, "application", id, nil)
	return app, nil
}

// ReturnFromSchool records a university sending the application back for
// fixes. Only the named fields are unlocked for editing; the profile lock
// itself stays in place.
func (s *ApplicationService) ReturnFromSchool(ctx context.Context, id, reason string, fields []string, actorID string) (*models.UniversityApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(app.StudentID)
	defer unlock()

	if err := s.guardApplication(app, models.ApplicationStatusReturnedBySchool); err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, app.StudentID)
	if err != nil {
		return nil, err
	}
	if err := s.cascadeStudent(student, models.StudentStatusReturnedBySchool); err != nil {
		return nil, err
	}

	app.Status = models.ApplicationStatusReturnedBySchool
	if reason != "" {
		app.ReturnReason = &reason
	}
	student.UnlockedFields = pq.StringArray(fields)

	if err := s.repo.UpdateWithStudent(ctx, app, student); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionAppReturnSchool, "application", id, map[string]interface{}{
		"reason": reason,
		"fields": fields,
	})
	if student.AssignedStaffID != nil {
		s.audit.notify(ctx, s.notifications, &models.Notification{
			UserID:         *student.AssignedStaffID,
			Title:          "Application returned",
			Message:        fmt.Sprintf("%s returned %s's application: %s", app.UniversityName, student.FullName, reason),
			Type:           models.NotificationTypeInfo,
			ActionRequired: true,
		})
	}
	return app, nil
}

// RecordOfferReceived marks the university's acceptance. The offer documents
// stay hidden until an explicit offer release.
func (s *ApplicationService) RecordOfferReceived(ctx context.Context, id, actorID string) (*models.UniversityApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(app.StudentID)
	defer unlock()

	if err := s.guardApplication(app, models.ApplicationStatusAccepted); err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, app.StudentID)
	if err != nil {
		return nil, err
	}
	if err := s.cascadeStudent(student, models.StudentStatusOfferReceived); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	app.Status = models.ApplicationStatusAccepted
	app.DecisionAt = &now

	if err := s.repo.UpdateWithStudent(ctx, app, student); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionAppOfferReceived, "application", id, nil)
	if student.AssignedStaffID != nil {
		s.audit.notify(ctx, s.notifications, &models.Notification{
			UserID:         *student.AssignedStaffID,
			Title:          "Offer received",
			Message:        fmt.Sprintf("%s accepted %s", app.UniversityName, student.FullName),
			Type:           models.NotificationTypeOffer,
			ActionRequired: true,
		})
	}
	return app, nil
}

// IdleApplications returns applications stuck in admin review longer than
// the given number of days.
func (s *ApplicationService) IdleApplications(ctx context.Context, thresholdDays int) ([]models.UniversityApplication, error) {
	if thresholdDays <= 0 {
		thresholdDays = 3
	}
	cutoff := s.clock.Now().AddDate(0, 0, -thresholdDays)
	return s.repo.ListIdlePendingAdmin(ctx, cutoff)
}

func (s *ApplicationService) guardApplication(app *models.UniversityApplication, target models.ApplicationStatus) error {
	allowed := workflow.CanTransitionApplication(app.Status, target)
	s.metrics.ObserveTransition("application", allowed)
	if !allowed {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("application cannot move from %s to %s", app.Status, target))
	}
	return nil
}

// cascadeStudent validates and applies the student side of an application
// transition in memory. A student already at the target is left untouched so
// parallel applications of the same student do not fail each other.
func (s *ApplicationService) cascadeStudent(student *models.Student, target models.StudentStatus) error {
	if student.Status == target {
		return nil
	}
	allowed := workflow.CanTransitionStudent(student.Status, target)
	s.metrics.ObserveTransition("student", allowed)
	if !allowed {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("student cannot cascade from %s to %s", student.Status, target))
	}
	student.Status = target
	student.CurrentStep = workflow.StepForStatus(target)
	return nil
}

func (s *ApplicationService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return student, nil
}
