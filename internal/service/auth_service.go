package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	"github.com/edupath/placement-api/pkg/config"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type staffAuthenticator interface {
	FindByEmail(ctx context.Context, email string) (*models.Staff, error)
	FindByID(ctx context.Context, id string) (*models.Staff, error)
}

// AuthService authenticates staff and issues access tokens.
type AuthService struct {
	staff     staffAuthenticator
	jwtCfg    config.JWTConfig
	audit     *auditTrail
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(staff staffAuthenticator, jwtCfg config.JWTConfig, auditRepo auditLogger, clk clock.Clock, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &AuthService{
		staff:     staff,
		jwtCfg:    jwtCfg,
		audit:     newAuditTrail(auditRepo, logger),
		clock:     clk,
		validator: validator.New(),
		logger:    logger,
	}
}

// Login verifies credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid credentials payload")
	}

	staff, err := s.staff.FindByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !staff.Active {
		return nil, appErrors.ErrInactiveAccount
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.jwtCfg.Expiration)
	claims := models.JWTClaims{
		StaffID: staff.ID,
		Email:   staff.Email,
		Role:    staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	s.audit.Emit(ctx, staff.ID, models.AuditActionLogin, "staff", staff.ID, nil)
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtCfg.Expiration.Seconds()),
		IssuedAt:    now,
		Staff: models.StaffInfo{
			ID:       staff.ID,
			FullName: staff.FullName,
			Email:    staff.Email,
			Role:     staff.Role,
		},
	}, nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrUnauthorized
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}
