package medical

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

type fakeRecordRepo struct {
	records map[uuid.UUID]*model.MedicalRecord
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[uuid.UUID]*model.MedicalRecord)}
}

func (f *fakeRecordRepo) Create(_ context.Context, r *model.MedicalRecord) error {
	r.ID = uuid.New()
	cp := *r
	f.records[r.ID] = &cp
	return nil
}

func (f *fakeRecordRepo) Get(_ context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRecordRepo) ListForPatient(_ context.Context, patientID uuid.UUID, _ *model.RecordFilters) ([]*model.MedicalRecord, error) {
	var out []*model.MedicalRecord
	for _, r := range f.records {
		if r.PatientID == patientID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) ListForDoctor(_ context.Context, doctorID uuid.UUID, _ *model.RecordFilters) ([]*model.MedicalRecord, error) {
	var out []*model.MedicalRecord
	for _, r := range f.records {
		if r.DoctorID == doctorID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) Update(_ context.Context, r *model.MedicalRecord) error {
	if _, ok := f.records[r.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *r
	f.records[r.ID] = &cp
	return nil
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRecordRepo(), logger.NewLogger(nil))
	doctor := Actor{ProfileID: uuid.New(), Role: model.RoleDoctor}
	patientID := uuid.New()
	diagnosis := "seasonal allergies"

	t.Run("doctor creates record as themselves", func(t *testing.T) {
		record, err := svc.Create(ctx, doctor, &model.CreateMedicalRecordRequest{
			PatientID: patientID.String(),
			VisitDate: "2026-02-10",
			Diagnosis: &diagnosis,
		})
		require.NoError(t, err)
		assert.Equal(t, doctor.ProfileID, record.DoctorID)
		assert.Equal(t, patientID, record.PatientID)
	})

	t.Run("patient cannot create records", func(t *testing.T) {
		_, err := svc.Create(ctx, Actor{ProfileID: patientID, Role: model.RolePatient}, &model.CreateMedicalRecordRequest{
			PatientID: patientID.String(),
			VisitDate: "2026-02-10",
		})
		assertCode(t, err, apperrors.ErrForbidden)
	})
}

func TestAccess(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRecordRepo()
	svc := NewService(repo, logger.NewLogger(nil))

	doctor := Actor{ProfileID: uuid.New(), Role: model.RoleDoctor}
	patient := Actor{ProfileID: uuid.New(), Role: model.RolePatient}
	diagnosis := "hypertension"

	record, err := svc.Create(ctx, doctor, &model.CreateMedicalRecordRequest{
		PatientID: patient.ProfileID.String(),
		VisitDate: "2026-02-10",
		Diagnosis: &diagnosis,
	})
	require.NoError(t, err)

	t.Run("patient reads own record", func(t *testing.T) {
		got, err := svc.Get(ctx, patient, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)
	})

	t.Run("stranger cannot read", func(t *testing.T) {
		_, err := svc.Get(ctx, Actor{ProfileID: uuid.New(), Role: model.RolePatient}, record.ID)
		assertCode(t, err, apperrors.ErrForbidden)
	})

	t.Run("lists are scoped", func(t *testing.T) {
		mine, err := svc.ListForActor(ctx, patient, nil)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		authored, err := svc.ListForActor(ctx, doctor, nil)
		require.NoError(t, err)
		assert.Len(t, authored, 1)

		other, err := svc.ListForActor(ctx, Actor{ProfileID: uuid.New(), Role: model.RolePatient}, nil)
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRecordRepo()
	svc := NewService(repo, logger.NewLogger(nil))

	author := Actor{ProfileID: uuid.New(), Role: model.RoleDoctor}
	patient := Actor{ProfileID: uuid.New(), Role: model.RolePatient}
	diagnosis := "migraine"

	record, err := svc.Create(ctx, author, &model.CreateMedicalRecordRequest{
		PatientID: patient.ProfileID.String(),
		VisitDate: "2026-02-10",
		Diagnosis: &diagnosis,
	})
	require.NoError(t, err)

	t.Run("authoring doctor edits", func(t *testing.T) {
		newDiagnosis := "chronic migraine"
		updated, err := svc.Update(ctx, author, record.ID, &model.UpdateMedicalRecordRequest{
			Diagnosis: &newDiagnosis,
		})
		require.NoError(t, err)
		require.NotNil(t, updated.Diagnosis)
		assert.Equal(t, newDiagnosis, *updated.Diagnosis)
	})

	t.Run("another doctor cannot edit", func(t *testing.T) {
		other := "tension headache"
		_, err := svc.Update(ctx, Actor{ProfileID: uuid.New(), Role: model.RoleDoctor}, record.ID, &model.UpdateMedicalRecordRequest{
			Diagnosis: &other,
		})
		assertCode(t, err, apperrors.ErrForbidden)
	})

	t.Run("the patient cannot edit", func(t *testing.T) {
		other := "self diagnosis"
		_, err := svc.Update(ctx, patient, record.ID, &model.UpdateMedicalRecordRequest{
			Diagnosis: &other,
		})
		assertCode(t, err, apperrors.ErrForbidden)
	})
}
