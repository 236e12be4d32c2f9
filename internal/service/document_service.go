package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type documentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
	ListByStudent(ctx context.Context, studentID string, includeHidden bool) ([]models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
}

// CreateDocumentRequest holds input for registering an uploaded document.
type CreateDocumentRequest struct {
	StudentID string              `json:"student_id" validate:"required"`
	Type      models.DocumentType `json:"type" validate:"required"`
	FileName  string              `json:"file_name" validate:"required"`
	Hidden    bool                `json:"hidden"`
}

// UpdateDocumentRequest holds a document change. ClearLock must be set to
// touch a locked document at all.
type UpdateDocumentRequest struct {
	FileName  *string                `json:"file_name"`
	Status    *models.DocumentStatus `json:"status"`
	Note      *string                `json:"note"`
	ClearLock bool                   `json:"clear_lock"`
}

// DocumentService manages student documents. Documents use whole-record
// locking: unlike the student profile there is no field-level filtering, a
// locked document rejects every update unless the update clears the lock.
type DocumentService struct {
	repo          documentRepository
	students      studentReader
	notifications notifier
	audit         *auditTrail
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo documentRepository, students studentReader, notifications notifier, auditRepo auditLogger, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		repo:          repo,
		students:      students,
		notifications: notifications,
		audit:         newAuditTrail(auditRepo, logger),
		validator:     validator.New(),
		logger:        logger,
	}
}

// Get fetches one document.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListByStudent returns a student's documents. Hidden offer documents are
// only included when includeHidden is set, which handlers reserve for staff.
func (s *DocumentService) ListByStudent(ctx context.Context, studentID string, includeHidden bool) ([]models.Document, error) {
	return s.repo.ListByStudent(ctx, studentID, includeHidden)
}

// Create registers an uploaded document in pending verification.
func (s *DocumentService) Create(ctx context.Context, req CreateDocumentRequest, actorID string) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}

	doc := &models.Document{
		StudentID: req.StudentID,
		Type:      req.Type,
		FileName:  req.FileName,
		Status:    models.DocumentStatusPending,
		IsHidden:  req.Hidden,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, "DOCUMENT_CREATE", "document", doc.ID, req)
	return doc, nil
}

// Update applies a document change. A locked document rejects the update
// wholesale unless ClearLock is set, in which case the lock drops and the
// rest of the change applies.
func (s *DocumentService) Update(ctx context.Context, id string, req UpdateDocumentRequest, actorID string) (*models.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsLocked && !req.ClearLock {
		return nil, appErrors.Clone(appErrors.ErrLocked, "document is locked")
	}

	if req.ClearLock {
		doc.IsLocked = false
		if doc.Status == models.DocumentStatusLocked {
			doc.Status = models.DocumentStatusPending
		}
	}
	if req.FileName != nil {
		doc.FileName = *req.FileName
	}
	if req.Status != nil {
		doc.Status = *req.Status
	}
	if req.Note != nil {
		doc.Note = req.Note
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, models.AuditActionDocumentUpdate, "document", id, req)
	return doc, nil
}

// MarkError flags a document as problematic and alerts the student's
// assigned counselor.
func (s *DocumentService) MarkError(ctx context.Context, id, note, actorID string) (*models.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsLocked {
		return nil, appErrors.Clone(appErrors.ErrLocked, "document is locked")
	}

	doc.Status = models.DocumentStatusError
	if note != "" {
		doc.Note = &note
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, actorID, models.AuditActionDocumentUpdate, "document", id, map[string]string{"status": "error", "note": note})

	student, err := s.students.FindByID(ctx, doc.StudentID)
	if err == nil && student.AssignedStaffID != nil {
		s.audit.notify(ctx, s.notifications, &models.Notification{
			UserID:         *student.AssignedStaffID,
			Title:          "Document problem",
			Message:        fmt.Sprintf("%s for %s needs attention: %s", doc.Type, student.FullName, note),
			Type:           models.NotificationTypeDocumentError,
			ActionRequired: true,
		})
	}
	return doc, nil
}

// Verify marks a pending document as verified.
func (s *DocumentService) Verify(ctx context.Context, id, actorID string) (*models.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsLocked {
		return nil, appErrors.Clone(appErrors.ErrLocked, "document is locked")
	}
	doc.Status = models.DocumentStatusVerified
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, models.AuditActionDocumentUpdate, "document", id, map[string]string{"status": "verified"})
	return doc, nil
}
