package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/config"
)

type mockSettingsRepo struct {
	settings *models.SystemSettings
	upserts  int
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*models.SystemSettings, error) {
	if m.settings == nil {
		return nil, sql.ErrNoRows
	}
	clone := *m.settings
	return &clone, nil
}

func (m *mockSettingsRepo) Upsert(ctx context.Context, settings *models.SystemSettings) error {
	clone := *settings
	m.settings = &clone
	m.upserts++
	return nil
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		CommissionAmount:       200,
		DepositThreshold:       750,
		FixedCredit:            250,
		ContractExpiryDays:     7,
		PassportExpiryMinMonth: 6,
		PricingVersion:         "v1",
	}
}

func TestSettingsSnapshotSeedsOnFirstBoot(t *testing.T) {
	repo := &mockSettingsRepo{}
	svc := NewSettingsService(repo, nil, testEngineConfig(), &mockAuditRepo{}, nil)

	settings, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200.0, settings.CommissionAmount)
	assert.Equal(t, 750.0, settings.DepositThreshold)
	assert.Equal(t, 250.0, settings.FixedCredit)
	assert.Equal(t, 7, settings.ContractExpiryDays)
	assert.Equal(t, "v1", settings.PricingVersion)
	assert.Equal(t, 1, repo.upserts)
}

func TestSettingsSnapshotReturnsStoredRow(t *testing.T) {
	repo := &mockSettingsRepo{settings: &models.SystemSettings{ID: "default", CommissionAmount: 300, DepositThreshold: 900, PricingVersion: "v1"}}
	svc := NewSettingsService(repo, nil, testEngineConfig(), &mockAuditRepo{}, nil)

	settings, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300.0, settings.CommissionAmount)
	assert.Zero(t, repo.upserts)
}

func TestSettingsUpdateValidatesAndAudits(t *testing.T) {
	repo := &mockSettingsRepo{}
	audit := &mockAuditRepo{}
	svc := NewSettingsService(repo, nil, testEngineConfig(), audit, nil)

	_, err := svc.Update(context.Background(), UpdateSettingsRequest{}, "admin")
	require.Error(t, err)

	settings, err := svc.Update(context.Background(), UpdateSettingsRequest{
		CommissionAmount:        250,
		DepositThreshold:        1000,
		FixedCredit:             250,
		ContractExpiryDays:      14,
		PassportExpiryMinMonths: 6,
		PricingVersion:          "v1",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 250.0, settings.CommissionAmount)
	assert.Equal(t, 1000.0, settings.DepositThreshold)
	assert.Contains(t, audit.actions(), models.AuditActionSettingsUpdate)
}
