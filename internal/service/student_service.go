package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/internal/workflow"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	ReleaseOffer(ctx context.Context, student *models.Student, docTypes []models.DocumentType) error
}

type settingsProvider interface {
	Snapshot(ctx context.Context) (*models.SystemSettings, error)
}

// alwaysEditableFields stay writable even on a locked profile.
var alwaysEditableFields = map[string]bool{
	"status":          true,
	"offers_unlocked": true,
}

// studentFieldAppliers maps update keys to setters on the student row.
// Unknown keys are ignored rather than rejected.
var studentFieldAppliers = map[string]func(*models.Student, interface{}) bool{
	"full_name":       func(s *models.Student, v interface{}) bool { return setString(&s.FullName, v) },
	"phone":           func(s *models.Student, v interface{}) bool { return setString(&s.Phone, v) },
	"email":           func(s *models.Student, v interface{}) bool { return setString(&s.Email, v) },
	"passport_number": func(s *models.Student, v interface{}) bool { return setString(&s.PassportNumber, v) },
	"father_name":     func(s *models.Student, v interface{}) bool { return setString(&s.FatherName, v) },
	"mother_name":     func(s *models.Student, v interface{}) bool { return setString(&s.MotherName, v) },
	"status": func(s *models.Student, v interface{}) bool {
		raw, ok := v.(string)
		if !ok {
			return false
		}
		s.Status = models.StudentStatus(raw)
		s.CurrentStep = workflow.StepForStatus(s.Status)
		return true
	},
	"offers_unlocked": func(s *models.Student, v interface{}) bool {
		b, ok := v.(bool)
		if !ok {
			return false
		}
		s.OffersUnlocked = b
		return true
	},
}

func setString(dst *string, v interface{}) bool {
	raw, ok := v.(string)
	if !ok {
		return false
	}
	*dst = raw
	return true
}

// StudentService manages student profiles, locks, and pricing.
type StudentService struct {
	repo      studentRepository
	settings  settingsProvider
	audit     *auditTrail
	metrics   *MetricsService
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, settings settingsProvider, auditRepo auditLogger, metrics *MetricsService, clk clock.Clock, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &StudentService{
		repo:      repo,
		settings:  settings,
		audit:     newAuditTrail(auditRepo, logger),
		metrics:   metrics,
		clock:     clk,
		validator: validator.New(),
		logger:    logger,
	}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
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
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return student, nil
}

// ChangeStatus moves a student along the transition table and recomputes the
// derived progress step.
func (s *StudentService) ChangeStatus(ctx context.Context, id string, target models.StudentStatus, actorID string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := workflow.CanTransitionStudent(student.Status, target)
	s.metrics.ObserveTransition("student", allowed)
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("student cannot move from %s to %s", student.Status, target))
	}

	from := student.Status
	student.Status = target
	student.CurrentStep = workflow.StepForStatus(target)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionStudentStatus, "student", id, map[string]string{
		"from": string(from),
		"to":   string(target),
	})
	return student, nil
}

// Update applies a partial update to the profile. On a locked profile the
// update set is silently filtered down to the unlocked fields plus the
// always-editable status and offer flags; the dropped keys do not fail the
// call. Unlocked profiles accept the whole set.
func (s *StudentService) Update(ctx context.Context, id string, updates map[string]interface{}, actorID string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(updates))
	for key, value := range updates {
		if student.IsProfileLocked && !s.fieldEditable(student, key) {
			continue
		}
		apply, ok := studentFieldAppliers[key]
		if !ok {
			continue
		}
		if apply(student, value) {
			applied = append(applied, key)
		}
	}

	if len(applied) > 0 {
		if err := s.repo.Update(ctx, student); err != nil {
			return nil, err
		}
	}

	s.audit.Emit(ctx, actorID, models.AuditActionStudentUpdate, "student", id, map[string]interface{}{
		"applied": applied,
	})
	return student, nil
}

func (s *StudentService) fieldEditable(student *models.Student, key string) bool {
	if alwaysEditableFields[key] {
		return true
	}
	for _, f := range student.UnlockedFields {
		if f == key {
			return true
		}
	}
	return false
}

// LockProfile locks every field of the profile and clears any field-level
// unlock list.
func (s *StudentService) LockProfile(ctx context.Context, id, lockedBy, actorID string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	student.IsProfileLocked = true
	student.LockedAt = &now
	student.LockedBy = &lockedBy
	student.UnlockedFields = nil
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, models.AuditActionProfileLock, "student", id, nil)
	return student, nil
}

// UnlockProfile removes the lock entirely.
func (s *StudentService) UnlockProfile(ctx context.Context, id, actorID string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student.IsProfileLocked = false
	student.LockedAt = nil
	student.LockedBy = nil
	student.UnlockedFields = nil
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, models.AuditActionProfileUnlock, "student", id, nil)
	return student, nil
}

// UnlockFields replaces the set of editable fields on a locked profile.
// Replace semantics: successive calls do not accumulate.
func (s *StudentService) UnlockFields(ctx context.Context, id string, fields []string, actorID string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student.UnlockedFields = pq.StringArray(fields)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, models.AuditActionFieldsUnlock, "student", id, map[string]interface{}{"fields": fields})
	return student, nil
}

// SetScholarshipType prices the student under the current settings snapshot.
// Repeated calls are last-write-wins: total owed is recomputed from the
// pricing table each time, never accumulated.
func (s *StudentService) SetScholarshipType(ctx context.Context, id string, scholarshipType models.ScholarshipType, actorID string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	pricing, ok := workflow.PricingFor(settings.PricingVersion, scholarshipType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("unknown scholarship type %s", scholarshipType))
	}

	student.ScholarshipType = &scholarshipType
	student.TotalOwed = pricing.ClientPays
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionScholarshipSet, "student", id, map[string]interface{}{
		"scholarship_type": scholarshipType,
		"total_owed":       pricing.ClientPays,
	})
	return student, nil
}

// FinalBalance computes the remaining amount due at offer release: the full
// service fee minus the deposit already paid net of the fixed credit.
// Students without a scholarship type owe nothing yet.
func (s *StudentService) FinalBalance(ctx context.Context, id string) (float64, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if student.ScholarshipType == nil {
		return 0, nil
	}
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	pricing, ok := workflow.PricingFor(settings.PricingVersion, *student.ScholarshipType)
	if !ok {
		return 0, nil
	}
	return pricing.ServiceFee - (student.DepositPaid - settings.FixedCredit), nil
}

// ReleaseOffer unlocks the student's offer documents and moves the student
// to offer_released in one cascade.
func (s *StudentService) ReleaseOffer(ctx context.Context, id, actorID string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := workflow.CanTransitionStudent(student.Status, models.StudentStatusOfferReleased)
	s.metrics.ObserveTransition("student", allowed)
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("offer cannot be released from %s", student.Status))
	}

	student.Status = models.StudentStatusOfferReleased
	student.CurrentStep = workflow.StepForStatus(models.StudentStatusOfferReleased)
	student.OffersUnlocked = true
	offerDocs := []models.DocumentType{models.DocumentTypeAdmissionLetter, models.DocumentTypeJW202}
	if err := s.repo.ReleaseOffer(ctx, student, offerDocs); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionOfferRelease, "student", id, nil)
	return student, nil
}
