package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupath/placement-api/internal/models"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type appointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	ListByStaff(ctx context.Context, staffID string) ([]models.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
}

// CreateAppointmentRequest holds input for scheduling an appointment.
type CreateAppointmentRequest struct {
	StaffID     string    `json:"staff_id" validate:"required"`
	LeadID      *string   `json:"lead_id"`
	StudentID   *string   `json:"student_id"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Note        *string   `json:"note"`
}

// AppointmentService schedules staff meetings with leads and students.
type AppointmentService struct {
	repo      appointmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAppointmentService constructs an AppointmentService.
func NewAppointmentService(repo appointmentRepository, logger *zap.Logger) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{repo: repo, validator: validator.New(), logger: logger}
}

// Create schedules a new appointment.
func (s *AppointmentService) Create(ctx context.Context, req CreateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment")
	}
	if req.LeadID == nil && req.StudentID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appointment needs a lead or a student")
	}
	appt := &models.Appointment{
		StaffID:     req.StaffID,
		LeadID:      req.LeadID,
		StudentID:   req.StudentID,
		ScheduledAt: req.ScheduledAt,
		Status:      models.AppointmentStatusScheduled,
		Note:        req.Note,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// ListByStaff returns a staff member's schedule.
func (s *AppointmentService) ListByStaff(ctx context.Context, staffID string) ([]models.Appointment, error) {
	return s.repo.ListByStaff(ctx, staffID)
}

// UpdateStatus completes or cancels an appointment.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	err := s.repo.UpdateStatus(ctx, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	return err
}
