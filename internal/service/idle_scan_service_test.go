package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	"github.com/edupath/placement-api/pkg/config"
)

type mockIdleLeads struct {
	idle   []models.Lead
	cutoff time.Time
}

func (m *mockIdleLeads) ListIdle(ctx context.Context, cutoff time.Time) ([]models.Lead, error) {
	m.cutoff = cutoff
	return m.idle, nil
}

type mockIdleApps struct {
	idle   []models.UniversityApplication
	cutoff time.Time
}

func (m *mockIdleApps) ListIdlePendingAdmin(ctx context.Context, cutoff time.Time) ([]models.UniversityApplication, error) {
	m.cutoff = cutoff
	return m.idle, nil
}

func TestIdleScanEmitsAlerts(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	leads := &mockIdleLeads{idle: []models.Lead{
		{ID: "l1", FullName: "Aidos", AssignedTo: strPtr("staff-1"), CreatedAt: now.AddDate(0, 0, -20)},
		{ID: "l2", FullName: "Unassigned", CreatedAt: now.AddDate(0, 0, -20)},
	}}
	apps := &mockIdleApps{idle: []models.UniversityApplication{
		{ID: "a1", StudentID: "s1", UniversityName: "Fudan"},
	}}
	students := newMockStudentStore(&models.Student{ID: "s1", FullName: "Dana", AssignedStaffID: strPtr("staff-2")})
	notifications := &mockNotifier{}

	cfg := config.IdleScanConfig{LeadThresholdDays: 7, AppThresholdDays: 3}
	svc := NewIdleScanService(leads, apps, students, notifications, cfg, clock.Fixed{Time: now}, nil)

	alerts, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, alerts, "unassigned lead emits nothing")

	assert.Equal(t, now.AddDate(0, 0, -7), leads.cutoff)
	assert.Equal(t, now.AddDate(0, 0, -3), apps.cutoff)

	require.Len(t, notifications.sent, 2)
	assert.Equal(t, "staff-1", notifications.sent[0].UserID)
	assert.Equal(t, models.NotificationTypeIdleAlert, notifications.sent[0].Type)
	assert.Equal(t, "staff-2", notifications.sent[1].UserID)
}

func TestIdleScanDefaultsThresholds(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	leads := &mockIdleLeads{}
	apps := &mockIdleApps{}
	svc := NewIdleScanService(leads, apps, newMockStudentStore(), &mockNotifier{}, config.IdleScanConfig{}, clock.Fixed{Time: now}, nil)

	_, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -7), leads.cutoff)
	assert.Equal(t, now.AddDate(0, 0, -3), apps.cutoff)
}
