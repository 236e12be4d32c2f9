package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type mockCommissionRepo struct {
	commissions map[string]*models.Commission
	buckets     map[string]*models.Staff
}

func newMockCommissionRepo(commissions ...*models.Commission) *mockCommissionRepo {
	m := &mockCommissionRepo{
		commissions: make(map[string]*models.Commission),
		buckets:     make(map[string]*models.Staff),
	}
	for _, c := range commissions {
		m.commissions[c.ID] = c
		if _, ok := m.buckets[c.StaffID]; !ok {
			m.buckets[c.StaffID] = &models.Staff{ID: c.StaffID}
		}
	}
	return m
}

func (m *mockCommissionRepo) bucket(staffID string) *models.Staff {
	if b, ok := m.buckets[staffID]; ok {
		return b
	}
	b := &models.Staff{ID: staffID}
	m.buckets[staffID] = b
	return b
}

func (m *mockCommissionRepo) FindByID(ctx context.Context, id string) (*models.Commission, error) {
	if c, ok := m.commissions[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCommissionRepo) ListByStaff(ctx context.Context, staffID string) ([]models.Commission, error) {
	var out []models.Commission
	for _, c := range m.commissions {
		if c.StaffID == staffID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCommissionRepo) MarkPaid(ctx context.Context, commission *models.Commission) error {
	clone := *commission
	m.commissions[commission.ID] = &clone
	b := m.bucket(commission.StaffID)
	b.PendingCommission -= commission.Amount
	b.PaidCommission += commission.Amount
	b.TotalCommission += commission.Amount
	return nil
}

func (m *mockCommissionRepo) MarkVoided(ctx context.Context, commission *models.Commission) error {
	clone := *commission
	m.commissions[commission.ID] = &clone
	m.bucket(commission.StaffID).PendingCommission -= commission.Amount
	return nil
}

func (m *mockCommissionRepo) Clawback(ctx context.Context, original, adjustment *models.Commission) error {
	originalClone := *original
	m.commissions[original.ID] = &originalClone
	if adjustment.ID == "" {
		adjustment.ID = "adj-1"
	}
	adjustmentClone := *adjustment
	m.commissions[adjustment.ID] = &adjustmentClone
	m.bucket(adjustment.StaffID).PendingCommission += adjustment.Amount
	return nil
}

func newTestCommissionService(repo *mockCommissionRepo) (*CommissionService, *mockAuditRepo) {
	audit := &mockAuditRepo{}
	fixed := clock.Fixed{Time: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewCommissionService(repo, audit, nil, fixed, nil), audit
}

func TestCommissionPayMovesBuckets(t *testing.T) {
	repo := newMockCommissionRepo(&models.Commission{ID: "c1", StaffID: "staff-1", Amount: 200, Status: models.CommissionStatusPending})
	repo.bucket("staff-1").PendingCommission = 200
	svc, audit := newTestCommissionService(repo)

	commission, err := svc.Pay(context.Background(), "c1", "accountant")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusPaid, commission.Status)
	require.NotNil(t, commission.PaidAt)

	bucket := repo.bucket("staff-1")
	assert.Zero(t, bucket.PendingCommission)
	assert.Equal(t, 200.0, bucket.PaidCommission)
	assert.Equal(t, 200.0, bucket.TotalCommission)
	assert.Contains(t, audit.actions(), models.AuditActionCommissionPay)
}

func TestCommissionPayRequiresPending(t *testing.T) {
	repo := newMockCommissionRepo(&models.Commission{ID: "c1", StaffID: "staff-1", Amount: 200, Status: models.CommissionStatusVoided})
	svc, _ := newTestCommissionService(repo)

	_, err := svc.Pay(context.Background(), "c1", "accountant")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestCommissionVoidPending(t *testing.T) {
	repo := newMockCommissionRepo(&models.Commission{ID: "c1", StaffID: "staff-1", Amount: 200, Status: models.CommissionStatusPending})
	repo.bucket("staff-1").PendingCommission = 200
	svc, _ := newTestCommissionService(repo)

	commission, err := svc.Void(context.Background(), "c1", "duplicate", "accountant")
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusVoided, commission.Status)
	assert.Zero(t, repo.bucket("staff-1").PendingCommission)
}

func TestCommissionVoidPaidSpawnsClawback(t *testing.T) {
	paidAt := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := newMockCommissionRepo(&models.Commission{
		ID: "c1", StaffID: "staff-1", StudentID: "s1", ContractID: "ct1",
		Amount: 200, Status: models.CommissionStatusPaid, PaidAt: &paidAt,
	})
	svc, _ := newTestCommissionService(repo)

	adjustment, err := svc.Void(context.Background(), "c1", "student withdrew", "accountant")
	require.NoError(t, err)
	require.NotNil(t, adjustment)
	assert.Equal(t, models.CommissionStatusPending, adjustment.Status)
	assert.Equal(t, -200.0, adjustment.Amount)
	assert.Equal(t, "staff-1", adjustment.StaffID)
	assert.Equal(t, "ct1", adjustment.ContractID)

	assert.Equal(t, models.CommissionStatusClawback, repo.commissions["c1"].Status)
	assert.Equal(t, -200.0, repo.bucket("staff-1").PendingCommission)
}

func TestCommissionVoidMissingIsNoOp(t *testing.T) {
	repo := newMockCommissionRepo()
	svc, audit := newTestCommissionService(repo)

	commission, err := svc.Void(context.Background(), "ghost", "typo", "accountant")
	require.NoError(t, err)
	assert.Nil(t, commission)
	assert.Empty(t, audit.logs)
}

func TestCommissionVoidTerminalRejected(t *testing.T) {
	repo := newMockCommissionRepo(&models.Commission{ID: "c1", StaffID: "staff-1", Amount: 200, Status: models.CommissionStatusClawback})
	svc, _ := newTestCommissionService(repo)

	_, err := svc.Void(context.Background(), "c1", "again", "accountant")
	require.Error(t, err)
}
