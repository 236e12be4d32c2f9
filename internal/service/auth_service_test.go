package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	"github.com/edupath/placement-api/pkg/config"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type mockStaffAuth struct {
	staff map[string]*models.Staff
}

func (m *mockStaffAuth) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	for _, s := range m.staff {
		if s.Email == email {
			clone := *s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffAuth) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	if s, ok := m.staff[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func newTestAuthService(t *testing.T) (*AuthService, *mockStaffAuth) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)
	staff := &mockStaffAuth{staff: map[string]*models.Staff{
		"staff-1": {ID: "staff-1", FullName: "Aliya", Email: "aliya@agency.kz", PasswordHash: string(hash), Role: models.RoleCounselor, Active: true},
		"staff-2": {ID: "staff-2", Email: "former@agency.kz", PasswordHash: string(hash), Active: false},
	}}
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour}
	svc := NewAuthService(staff, cfg, &mockAuditRepo{}, clock.System{}, nil)
	return svc, staff
}

func TestAuthLoginSuccess(t *testing.T) {
	svc, _ := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "aliya@agency.kz", Password: "secret-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "staff-1", resp.Staff.ID)
	assert.Equal(t, models.RoleCounselor, resp.Staff.Role)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.StaffID)
	assert.Equal(t, models.RoleCounselor, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "aliya@agency.kz", Password: "nope-nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@agency.kz", Password: "secret-password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc, _ := newTestAuthService(t)
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "former@agency.kz", Password: "secret-password"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthValidateTokenGarbage(t *testing.T) {
	svc, _ := newTestAuthService(t)
	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
