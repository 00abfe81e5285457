package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	apperrors "github.com/carelink/portal-api/pkg/errors"
	"github.com/carelink/portal-api/pkg/logger"
)

// Service manages a patient's own profile details. Patients only ever see
// and edit their own record; doctors read patient details through the
// appointment and medical record paths instead.
type Service struct {
	repo   repository.PatientRepository
	logger *logger.Logger
}

func NewService(repo repository.PatientRepository, l *logger.Logger) *Service {
	return &Service{repo: repo, logger: l}
}

func (s *Service) Get(ctx context.Context, profileID uuid.UUID) (*model.PatientProfile, error) {
	patient, err := s.repo.GetByProfileID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient profile", err)
		}
		return nil, apperrors.Store(err)
	}
	return patient, nil
}

// Update applies the provided fields to the caller's patient profile.
// Absent fields keep their current values.
func (s *Service) Update(ctx context.Context, profileID uuid.UUID, req *model.UpdatePatientRequest) (*model.PatientProfile, error) {
	current, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if req.Address != nil {
		current.Address = req.Address
	}
	if req.DateOfBirth != nil {
		current.DateOfBirth = req.DateOfBirth
	}
	if req.MedicalAidNumber != nil {
		current.MedicalAidNumber = req.MedicalAidNumber
	}
	if req.EmergencyContact != nil {
		current.EmergencyContact = req.EmergencyContact
	}
	if req.EmergencyPhone != nil {
		current.EmergencyPhone = req.EmergencyPhone
	}
	if req.MedicalHistory != nil {
		current.MedicalHistory = req.MedicalHistory
	}
	if req.CurrentMedications != nil {
		current.CurrentMedications = req.CurrentMedications
	}
	if req.Allergies != nil {
		current.Allergies = req.Allergies
	}

	if err := s.repo.Update(ctx, profileID, current); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient profile", err)
		}
		return nil, apperrors.Store(err)
	}
	return current, nil
}
