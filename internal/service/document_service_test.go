package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

type mockDocumentRepo struct {
	docs map[string]*models.Document
}

func newMockDocumentRepo(docs ...*models.Document) *mockDocumentRepo {
	m := &mockDocumentRepo{docs: make(map[string]*models.Document)}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*models.Document, error) {
	if d, ok := m.docs[id]; ok {
		clone := *d
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDocumentRepo) ListByStudent(ctx context.Context, studentID string, includeHidden bool) ([]models.Document, error) {
	var out []models.Document
	for _, d := range m.docs {
		if d.StudentID != studentID {
			continue
		}
		if d.IsHidden && !includeHidden {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = "new-doc"
	}
	clone := *doc
	m.docs[doc.ID] = &clone
	return nil
}

func (m *mockDocumentRepo) Update(ctx context.Context, doc *models.Document) error {
	clone := *doc
	m.docs[doc.ID] = &clone
	return nil
}

func newTestDocumentService(repo *mockDocumentRepo, students *mockStudentStore) (*DocumentService, *mockNotifier) {
	if students == nil {
		students = newMockStudentStore(&models.Student{ID: "s1", FullName: "Dana", AssignedStaffID: strPtr("staff-1")})
	}
	notifications := &mockNotifier{}
	return NewDocumentService(repo, students, notifications, &mockAuditRepo{}, nil), notifications
}

func TestDocumentUpdateLockedRejectedWholesale(t *testing.T) {
	repo := newMockDocumentRepo(&models.Document{ID: "d1", StudentID: "s1", IsLocked: true, Status: models.DocumentStatusLocked, FileName: "passport.pdf"})
	svc, _ := newTestDocumentService(repo, nil)

	_, err := svc.Update(context.Background(), "d1", UpdateDocumentRequest{FileName: strPtr("new.pdf")}, "admin")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErr.Code)
	assert.Equal(t, "passport.pdf", repo.docs["d1"].FileName, "no partial application for documents")
}

func TestDocumentUpdateClearLockApplies(t *testing.T) {
	repo := newMockDocumentRepo(&models.Document{ID: "d1", StudentID: "s1", IsLocked: true, Status: models.DocumentStatusLocked, FileName: "passport.pdf"})
	svc, _ := newTestDocumentService(repo, nil)

	doc, err := svc.Update(context.Background(), "d1", UpdateDocumentRequest{FileName: strPtr("new.pdf"), ClearLock: true}, "admin")
	require.NoError(t, err)
	assert.False(t, doc.IsLocked)
	assert.Equal(t, "new.pdf", doc.FileName)
	assert.Equal(t, models.DocumentStatusPending, doc.Status)
}

func TestDocumentMarkErrorNotifiesCounselor(t *testing.T) {
	repo := newMockDocumentRepo(&models.Document{ID: "d1", StudentID: "s1", Type: models.DocumentTypeTranscript, Status: models.DocumentStatusPending})
	svc, notifications := newTestDocumentService(repo, nil)

	doc, err := svc.MarkError(context.Background(), "d1", "blurry scan", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusError, doc.Status)
	assert.Equal(t, "blurry scan", *doc.Note)
	require.Len(t, notifications.sent, 1)
	assert.Equal(t, "staff-1", notifications.sent[0].UserID)
	assert.Equal(t, models.NotificationTypeDocumentError, notifications.sent[0].Type)
	assert.True(t, notifications.sent[0].ActionRequired)
}

func TestDocumentListHidesOfferDocuments(t *testing.T) {
	repo := newMockDocumentRepo(
		&models.Document{ID: "d1", StudentID: "s1", Type: models.DocumentTypePassport},
		&models.Document{ID: "d2", StudentID: "s1", Type: models.DocumentTypeAdmissionLetter, IsHidden: true},
	)
	svc, _ := newTestDocumentService(repo, nil)

	visible, err := svc.ListByStudent(context.Background(), "s1", false)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	all, err := svc.ListByStudent(context.Background(), "s1", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDocumentVerify(t *testing.T) {
	repo := newMockDocumentRepo(&models.Document{ID: "d1", StudentID: "s1", Status: models.DocumentStatusPending})
	svc, _ := newTestDocumentService(repo, nil)

	doc, err := svc.Verify(context.Background(), "d1", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusVerified, doc.Status)
}
