package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupath/placement-api/internal/models"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type staffRepository interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	List(ctx context.Context) ([]models.Staff, error)
	Create(ctx context.Context, staff *models.Staff) error
}

// CreateStaffRequest holds input for onboarding a staff member.
type CreateStaffRequest struct {
	FullName string           `json:"full_name" validate:"required"`
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required,min=8"`
	Role     models.StaffRole `json:"role" validate:"required,oneof=ADMIN COUNSELOR ACCOUNTANT"`
}

// StaffService manages staff accounts. Commission buckets on the staff row
// are owned by the commission engine; this service only reads them.
type StaffService struct {
	repo      staffRepository
	audit     *auditTrail
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService constructs a StaffService.
func NewStaffService(repo staffRepository, auditRepo auditLogger, logger *zap.Logger) *StaffService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		repo:      repo,
		audit:     newAuditTrail(auditRepo, logger),
		validator: validator.New(),
		logger:    logger,
	}
}

// Get fetches one staff member including commission buckets.
func (s *StaffService) Get(ctx context.Context, id string) (*models.Staff, error) {
	staff, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return staff, nil
}

// List returns all staff members.
func (s *StaffService) List(ctx context.Context) ([]models.Staff, error) {
	return s.repo.List(ctx)
}

// Create onboards a staff member with a bcrypt password hash.
func (s *StaffService) Create(ctx context.Context, req CreateStaffRequest, actorID string) (*models.Staff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	staff := &models.Staff{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, staff); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, actorID, "STAFF_CREATE", "staff", staff.ID, map[string]string{"email": req.Email, "role": string(req.Role)})
	return staff, nil
}
