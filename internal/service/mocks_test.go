package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/edupath/placement-api/internal/models"
)

type mockAuditRepo struct {
	logs []models.AuditLog
}

func (m *mockAuditRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditRepo) actions() []string {
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

type mockNotifier struct {
	sent []models.Notification
}

func (m *mockNotifier) Create(ctx context.Context, n *models.Notification) error {
	m.sent = append(m.sent, *n)
	return nil
}

type mockStudentStore struct {
	students     map[string]*models.Student
	updated      int
	releasedDocs []models.DocumentType
}

func newMockStudentStore(students ...*models.Student) *mockStudentStore {
	m := &mockStudentStore{students: make(map[string]*models.Student)}
	for _, s := range students {
		m.students[s.ID] = s
	}
	return m
}

func (m *mockStudentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) Update(ctx context.Context, student *models.Student) error {
	clone := *student
	m.students[student.ID] = &clone
	m.updated++
	return nil
}

func (m *mockStudentStore) ReleaseOffer(ctx context.Context, student *models.Student, docTypes []models.DocumentType) error {
	clone := *student
	m.students[student.ID] = &clone
	m.releasedDocs = docTypes
	return nil
}

type mockSettingsProvider struct {
	settings models.SystemSettings
	calls    int
}

func (m *mockSettingsProvider) Snapshot(ctx context.Context) (*models.SystemSettings, error) {
	m.calls++
	clone := m.settings
	return &clone, nil
}

func defaultTestSettings() models.SystemSettings {
	return models.SystemSettings{
		ID:                      "default",
		CommissionAmount:        200,
		DepositThreshold:        750,
		FixedCredit:             250,
		ContractExpiryDays:      7,
		PassportExpiryMinMonths: 6,
		PricingVersion:          "v1",
	}
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
