package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	apperrors "github.com/carelink/portal-api/pkg/errors"
	"github.com/carelink/portal-api/pkg/logger"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.PatientProfile
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.PatientProfile)}
}

func (f *fakePatientRepo) GetByProfileID(_ context.Context, profileID uuid.UUID) (*model.PatientProfile, error) {
	p, ok := f.patients[profileID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePatientRepo) Update(_ context.Context, profileID uuid.UUID, patient *model.PatientProfile) error {
	if _, ok := f.patients[profileID]; !ok {
		return repository.ErrNotFound
	}
	copied := *patient
	f.patients[profileID] = &copied
	return nil
}

func newTestService(t *testing.T) (*Service, *fakePatientRepo, uuid.UUID) {
	t.Helper()
	repo := newFakePatientRepo()
	profileID := uuid.New()
	repo.patients[profileID] = &model.PatientProfile{
		ProfileID: profileID,
		IDNumber:  "9001015800087",
	}
	return NewService(repo, logger.NewLogger(nil)), repo, profileID
}

func strPtr(s string) *string { return &s }

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("returns own profile", func(t *testing.T) {
		svc, _, profileID := newTestService(t)
		p, err := svc.Get(ctx, profileID)
		require.NoError(t, err)
		assert.Equal(t, "9001015800087", p.IDNumber)
	})

	t.Run("unknown profile", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Get(ctx, uuid.New())
		assertCode(t, err, apperrors.ErrNotFound)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("merges provided fields", func(t *testing.T) {
		svc, repo, profileID := newTestService(t)
		repo.patients[profileID].Allergies = strPtr("penicillin")

		updated, err := svc.Update(ctx, profileID, &model.UpdatePatientRequest{
			DateOfBirth:      strPtr("1990-01-01"),
			EmergencyContact: strPtr("Jo Example"),
		})
		require.NoError(t, err)
		require.NotNil(t, updated.DateOfBirth)
		assert.Equal(t, "1990-01-01", *updated.DateOfBirth)
		require.NotNil(t, updated.EmergencyContact)
		assert.Equal(t, "Jo Example", *updated.EmergencyContact)

		// Absent fields keep their stored values.
		require.NotNil(t, updated.Allergies)
		assert.Equal(t, "penicillin", *updated.Allergies)
		assert.Equal(t, "9001015800087", updated.IDNumber)
	})

	t.Run("date of birth persists across reads", func(t *testing.T) {
		svc, _, profileID := newTestService(t)
		_, err := svc.Update(ctx, profileID, &model.UpdatePatientRequest{
			DateOfBirth: strPtr("1985-06-15"),
		})
		require.NoError(t, err)

		p, err := svc.Get(ctx, profileID)
		require.NoError(t, err)
		require.NotNil(t, p.DateOfBirth)
		assert.Equal(t, "1985-06-15", *p.DateOfBirth)
	})

	t.Run("unknown profile", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Update(ctx, uuid.New(), &model.UpdatePatientRequest{Address: strPtr("1 Main Rd")})
		assertCode(t, err, apperrors.ErrNotFound)
	})
}
