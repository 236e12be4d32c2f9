package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type mockApplicationRepo struct {
	apps        map[string]*models.UniversityApplication
	students    *mockStudentStore
	lockedDocs  bool
	cascades    int
	idlePending []models.UniversityApplication
}

func newMockApplicationRepo(students *mockStudentStore, apps ...*models.UniversityApplication) *mockApplicationRepo {
	m := &mockApplicationRepo{apps: make(map[string]*models.UniversityApplication), students: students}
	for _, a := range apps {
		m.apps[a.ID] = a
	}
	return m
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.UniversityApplication, error) {
	if a, ok := m.apps[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) ListByStudent(ctx context.Context, studentID string) ([]models.UniversityApplication, error) {
	var out []models.UniversityApplication
	for _, a := range m.apps {
		if a.StudentID == studentID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockApplicationRepo) CountByBatch(ctx context.Context, studentID string, batch int) (int, error) {
	count := 0
	for _, a := range m.apps {
		if a.StudentID == studentID && a.Batch == batch {
			count++
		}
	}
	return count, nil
}

func (m *mockApplicationRepo) ExistsForUniversity(ctx context.Context, studentID, universityName string) (bool, error) {
	for _, a := range m.apps {
		if a.StudentID == studentID && a.UniversityName == universityName {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *models.UniversityApplication) error {
	if app.ID == "" {
		app.ID = "new-app"
	}
	clone := *app
	m.apps[app.ID] = &clone
	return nil
}

func (m *mockApplicationRepo) UpdateWithStudent(ctx context.Context, app *models.UniversityApplication, student *models.Student) error {
	appClone := *app
	m.apps[app.ID] = &appClone
	studentClone := *student
	m.students.students[student.ID] = &studentClone
	m.cascades++
	return nil
}

func (m *mockApplicationRepo) UpdateWithStudentLockingDocuments(ctx context.Context, app *models.UniversityApplication, student *models.Student) error {
	m.lockedDocs = true
	return m.UpdateWithStudent(ctx, app, student)
}

func (m *mockApplicationRepo) ListIdlePendingAdmin(ctx context.Context, cutoff time.Time) ([]models.UniversityApplication, error) {
	return m.idlePending, nil
}

func newTestApplicationService(repo *mockApplicationRepo) (*ApplicationService, *mockAuditRepo, *mockNotifier) {
	audit := &mockAuditRepo{}
	notifications := &mockNotifier{}
	fixed := clock.Fixed{Time: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewApplicationService(repo, repo.students, notifications, audit, nil, fixed, nil), audit, notifications
}

func TestApplicationCreateBatchLimits(t *testing.T) {
	students := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusActiveProfile})
	repo := newMockApplicationRepo(students,
		&models.UniversityApplication{ID: "a1", StudentID: "s1", UniversityName: "Tsinghua", Batch: models.BatchFirst},
		&models.UniversityApplication{ID: "a2", StudentID: "s1", UniversityName: "Fudan", Batch: models.BatchFirst},
	)
	svc, _, _ := newTestApplicationService(repo)

	_, err := svc.Create(context.Background(), CreateApplicationRequest{
		StudentID: "s1", UniversityName: "Zhejiang", Program: "CS", Batch: models.BatchFirst,
	}, "admin")
	require.Error(t, err, "first batch caps at two universities")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	app, err := svc.Create(context.Background(), CreateApplicationRequest{
		StudentID: "s1", UniversityName: "Zhejiang", Program: "CS", Batch: models.BatchSecond,
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusDraft, app.Status)
}

func TestApplicationCreateRejectsDuplicateUniversity(t *testing.T) {
	students := newMockStudentStore(&models.Student{ID: "s1"})
	repo := newMockApplicationRepo(students,
		&models.UniversityApplication{ID: "a1", StudentID: "s1", UniversityName: "Tsinghua", Batch: models.BatchFirst},
	)
	svc, _, _ := newTestApplicationService(repo)

	_, err := svc.Create(context.Background(), CreateApplicationRequest{
		StudentID: "s1", UniversityName: "Tsinghua", Program: "CS", Batch: models.BatchSecond,
	}, "admin")
	require.Error(t, err, "one university may only appear in one batch")
}

func TestApplicationSubmitToAdminLocksProfile(t *testing.T) {
	students := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusActiveProfile, AssignedStaffID: strPtr("staff-1")})
	repo := newMockApplicationRepo(students,
		&models.UniversityApplication{ID: "a1", StudentID: "s1", Status: models.ApplicationStatusDraft},
	)
	svc, audit, notifications := newTestApplicationService(repo)

	app, err := svc.SubmitToAdmin(context.Background(), "a1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPendingAdmin, app.Status)
	require.NotNil(t, app.SubmittedToAdminAt)

	student := repo.students.students["s1"]
	assert.True(t, student.IsProfileLocked)
	assert.Equal(t, "admin-1", *student.LockedBy)
	assert.Empty(t, student.UnlockedFields)
	assert.Contains(t, audit.actions(), models.AuditActionAppSubmitAdmin)
	require.Len(t, notifications.sent, 1)
	assert.Equal(t, models.NotificationTypePendingReview, notifications.sent[0].Type)
}

func TestApplicationRejectUnlocksAndCascades(t *testing.T) {
	now := time.Now()
	students := newMockStudentStore(&models.Student{
		ID:              "s1",
		Status:          models.StudentStatusSubmittedToAdmin,
		IsProfileLocked: true,
		LockedAt:        timePtr(now),
		LockedBy:        strPtr("admin-1"),
	})
	repo := newMockApplicationRepo(students,
		&models.UniversityApplication{ID: "a1", StudentID: "s1", Status: models.ApplicationStatusPendingAdmin},
	)
	svc, _, _ := newTestApplicationService(repo)

	app, err := svc.Reject(context.Background(), "a1", "missing transcript", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, app.Status)
	assert.Equal(t, "missing transcript", *app.ReturnReason)

	student := repo.students.students["s1"]
	assert.Equal(t, models.StudentStatusReturnedByAdmin, student.Status)
	assert.Equal(t, 3, student.CurrentStep)
	assert.False(t, student.IsProfileLocked)
	assert.Nil(t, student.LockedAt)
	assert.Nil(t, student.LockedBy)
}

func TestApplicationSubmitToUniversityLocksDocuments(t *testing.T) {
	students := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusSubmittedToAdmin, IsProfileLocked: true})
	repo := newMockApplicationRepo(students,
		&models.UniversityApplication{ID: "a1", StudentID: "s1", Status: models.ApplicationStatusPendingAdmin},
	)
	svc, _, _ := newTestApplicationService(repo)

	app, err := svc.SubmitToUniversity(context.Background(), "a1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusSubmittedToUni, app.Status)
	require.NotNil(t, app.SubmittedToUniAt)
	assert.True(t, repo.lockedDocs)
	assert.Equal(t, models.StudentStatusSubmittedToUni, repo.students.students["s1"].Status)
}

func TestApplicationReturnFromSchoolPartialUnlock(t *testing.T) {
	students := newMockStudentStore(&models.Student{
		ID:              "s1",
		Status:          models.StudentStatusSubmittedToUni,
		IsProfileLocked: true,
		AssignedStaffID: strPtr("staff-1"),
	})
	repo := newMockApplicationRepo(students,
		&models.UniversityApplication{ID: "a1", StudentID: "s1", UniversityName: "Fudan", Status: models.ApplicationStatusSubmittedToUni},
	)
	svc, _, notifications := newTestApplicationService(repo)

	app, err := svc.ReturnFromSchool(context.Background(), "a1", "passport scan unreadable", []string{"passport_number"}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusReturnedBySchool, app.Status)

	student := repo.students.students["s1"]
	assert.Equal(t, models.StudentStatusReturnedBySchool, student.Status)
	assert.True(t, student.IsProfileLocked, "profile lock survives a partial unlock")
	assert.Equal(t, pq.StringArray{"passport_number"}, student.UnlockedFields)
	require.Len(t, notifications.sent, 1)
}

func TestApplicationRecordOfferReceived(t *testing.T) {
	students := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusSubmittedToUni, AssignedStaffID: strPtr("staff-1")})
	repo := newMockApplicationRepo(students,
		&models.UniversityApplication{ID: "a1", StudentID: "s1", Status: models.ApplicationStatusSubmittedToUni},
	)
	svc, _, notifications := newTestApplicationService(repo)

	app, err := svc.RecordOfferReceived(context.Background(), "a1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, app.Status)
	require.NotNil(t, app.DecisionAt)
	assert.Equal(t, models.StudentStatusOfferReceived, repo.students.students["s1"].Status)
	require.Len(t, notifications.sent, 1)
	assert.Equal(t, models.NotificationTypeOffer, notifications.sent[0].Type)
}

func TestApplicationCascadeValidatedBeforeMutation(t *testing.T) {
	students := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusCompleted})
	repo := newMockApplicationRepo(students,
		&models.UniversityApplication{ID: "a1", StudentID: "s1", Status: models.ApplicationStatusPendingAdmin},
	)
	svc, _, _ := newTestApplicationService(repo)

	_, err := svc.SubmitToUniversity(context.Background(), "a1", "admin-1")
	require.Error(t, err, "student side of the cascade is not allowed")
	assert.Equal(t, models.ApplicationStatusPendingAdmin, repo.apps["a1"].Status, "nothing persisted")
	assert.Zero(t, repo.cascades)
}

func TestApplicationInvalidTransitionRejected(t *testing.T) {
	students := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusActiveProfile})
	repo := newMockApplicationRepo(students,
		&models.UniversityApplication{ID: "a1", StudentID: "s1", Status: models.ApplicationStatusDraft},
	)
	svc, _, _ := newTestApplicationService(repo)

	_, err := svc.SubmitToUniversity(context.Background(), "a1", "admin-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}
