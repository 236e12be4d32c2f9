package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupath/placement-api/internal/models"
	"github.com/edupath/placement-api/pkg/clock"
	appErrors "github.com/edupath/placement-api/pkg/errors"
)

func newTestStudentService(store *mockStudentStore, settings *mockSettingsProvider) (*StudentService, *mockAuditRepo) {
	if settings == nil {
		settings = &mockSettingsProvider{settings: defaultTestSettings()}
	}
	audit := &mockAuditRepo{}
	fixed := clock.Fixed{Time: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewStudentService(store, settings, audit, nil, fixed, nil), audit
}

func TestStudentUpdateUnlockedProfileAppliesEverything(t *testing.T) {
	store := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusActiveProfile})
	svc, _ := newTestStudentService(store, nil)

	student, err := svc.Update(context.Background(), "s1", map[string]interface{}{
		"full_name":       "Dana",
		"passport_number": "N1234567",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Dana", student.FullName)
	assert.Equal(t, "N1234567", student.PassportNumber)
}

func TestStudentUpdateLockedProfileFiltersFields(t *testing.T) {
	store := newMockStudentStore(&models.Student{
		ID:              "s1",
		FullName:        "Dana",
		PassportNumber:  "OLD",
		Status:          models.StudentStatusSubmittedToUni,
		IsProfileLocked: true,
		UnlockedFields:  pq.StringArray{"passport_number"},
	})
	svc, _ := newTestStudentService(store, nil)

	student, err := svc.Update(context.Background(), "s1", map[string]interface{}{
		"full_name":       "Hacker",
		"passport_number": "N7654321",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Dana", student.FullName, "locked field must be dropped silently")
	assert.Equal(t, "N7654321", student.PassportNumber)
}

func TestStudentUpdateLockedProfileAlwaysAllowsStatusAndOffers(t *testing.T) {
	store := newMockStudentStore(&models.Student{
		ID:              "s1",
		Status:          models.StudentStatusOfferReceived,
		CurrentStep:     4,
		IsProfileLocked: true,
	})
	svc, _ := newTestStudentService(store, nil)

	student, err := svc.Update(context.Background(), "s1", map[string]interface{}{
		"status":          string(models.StudentStatusOfferReleased),
		"offers_unlocked": true,
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusOfferReleased, student.Status)
	assert.Equal(t, 5, student.CurrentStep)
	assert.True(t, student.OffersUnlocked)
}

func TestStudentUnlockFieldsReplaces(t *testing.T) {
	store := newMockStudentStore(&models.Student{
		ID:              "s1",
		Status:          models.StudentStatusReturnedBySchool,
		IsProfileLocked: true,
		UnlockedFields:  pq.StringArray{"passport_number", "father_name"},
	})
	svc, _ := newTestStudentService(store, nil)

	student, err := svc.UnlockFields(context.Background(), "s1", []string{"mother_name"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"mother_name"}, student.UnlockedFields)
	assert.True(t, student.IsProfileLocked, "lock flag stays in place")
}

func TestStudentLockProfileClearsFieldUnlocks(t *testing.T) {
	store := newMockStudentStore(&models.Student{
		ID:             "s1",
		Status:         models.StudentStatusActiveProfile,
		UnlockedFields: pq.StringArray{"phone"},
	})
	svc, _ := newTestStudentService(store, nil)

	student, err := svc.LockProfile(context.Background(), "s1", "admin-1", "admin-1")
	require.NoError(t, err)
	assert.True(t, student.IsProfileLocked)
	assert.Empty(t, student.UnlockedFields)
	require.NotNil(t, student.LockedAt)
	assert.Equal(t, "admin-1", *student.LockedBy)
}

func TestStudentChangeStatusRecomputesStep(t *testing.T) {
	store := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusContractSigned, CurrentStep: 2})
	svc, audit := newTestStudentService(store, nil)

	student, err := svc.ChangeStatus(context.Background(), "s1", models.StudentStatusActiveProfile, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, student.CurrentStep)
	assert.Contains(t, audit.actions(), models.AuditActionStudentStatus)

	_, err = svc.ChangeStatus(context.Background(), "s1", models.StudentStatusOfferReleased, "admin")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestStudentSetScholarshipTypeLastWriteWins(t *testing.T) {
	store := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusContractSigned})
	svc, _ := newTestStudentService(store, nil)

	student, err := svc.SetScholarshipType(context.Background(), "s1", models.ScholarshipFull, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2500.0, student.TotalOwed)

	student, err = svc.SetScholarshipType(context.Background(), "s1", models.ScholarshipSelfFunded, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, student.TotalOwed, "recomputed, never accumulated")
	assert.Equal(t, models.ScholarshipSelfFunded, *student.ScholarshipType)
}

func TestStudentSetScholarshipTypeUnknown(t *testing.T) {
	store := newMockStudentStore(&models.Student{ID: "s1"})
	svc, _ := newTestStudentService(store, nil)

	_, err := svc.SetScholarshipType(context.Background(), "s1", models.ScholarshipType("platinum"), "admin")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentFinalBalance(t *testing.T) {
	full := models.ScholarshipFull
	store := newMockStudentStore(
		&models.Student{ID: "s1", ScholarshipType: &full, DepositPaid: 1000},
		&models.Student{ID: "s2"},
	)
	svc, _ := newTestStudentService(store, nil)

	balance, err := svc.FinalBalance(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 5000.0-(1000.0-250.0), balance)

	balance, err = svc.FinalBalance(context.Background(), "s2")
	require.NoError(t, err)
	assert.Zero(t, balance, "no scholarship type means nothing owed yet")
}

func TestStudentReleaseOffer(t *testing.T) {
	store := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusOfferReceived, CurrentStep: 4})
	svc, audit := newTestStudentService(store, nil)

	student, err := svc.ReleaseOffer(context.Background(), "s1", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusOfferReleased, student.Status)
	assert.Equal(t, 5, student.CurrentStep)
	assert.True(t, student.OffersUnlocked)
	assert.ElementsMatch(t, []models.DocumentType{models.DocumentTypeAdmissionLetter, models.DocumentTypeJW202}, store.releasedDocs)
	assert.Contains(t, audit.actions(), models.AuditActionOfferRelease)
}

func TestStudentReleaseOfferWrongState(t *testing.T) {
	store := newMockStudentStore(&models.Student{ID: "s1", Status: models.StudentStatusActiveProfile})
	svc, _ := newTestStudentService(store, nil)

	_, err := svc.ReleaseOffer(context.Background(), "s1", "admin")
	require.Error(t, err)
	assert.Nil(t, store.releasedDocs)
}
