package medical

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	apperrors "github.com/carelink/portal-api/pkg/errors"
	"github.com/carelink/portal-api/pkg/logger"
)

// Actor mirrors the identity resolved from the access token.
type Actor struct {
	ProfileID uuid.UUID
	Role      model.Role
}

// Service manages visit history. Records are written by doctors (usually via
// appointment completion), read by the patient they belong to, and edited
// only by the doctor who authored them.
type Service struct {
	repo   repository.MedicalRecordRepository
	logger *logger.Logger
}

func NewService(repo repository.MedicalRecordRepository, l *logger.Logger) *Service {
	return &Service{repo: repo, logger: l}
}

// Create files a standalone record for a visit that did not go through the
// appointment flow. Only doctors may create records, always as themselves.
func (s *Service) Create(ctx context.Context, actor Actor, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if actor.Role != model.RoleDoctor {
		return nil, apperrors.Forbidden("only doctors can create medical records")
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.Validation("invalid patient id", err)
	}

	record := &model.MedicalRecord{
		PatientID:        patientID,
		DoctorID:         actor.ProfileID,
		VisitDate:        req.VisitDate,
		Diagnosis:        req.Diagnosis,
		Symptoms:         req.Symptoms,
		Prescription:     req.Prescription,
		Notes:            req.Notes,
		FollowUpRequired: req.FollowUpRequired,
		FollowUpDate:     req.FollowUpDate,
	}
	if req.AppointmentID != nil {
		apptID, err := uuid.Parse(*req.AppointmentID)
		if err != nil {
			return nil, apperrors.Validation("invalid appointment id", err)
		}
		record.AppointmentID = &apptID
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperrors.Store(err)
	}

	s.logger.Info("medical record created",
		"record_id", record.ID.String(),
		"patient_id", patientID.String(),
	)
	return record, nil
}

// Get returns the record if the actor is its patient or authoring doctor.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("medical record", err)
		}
		return nil, apperrors.Store(err)
	}
	if record.PatientID != actor.ProfileID && record.DoctorID != actor.ProfileID {
		return nil, apperrors.Forbidden("medical record belongs to another profile")
	}
	return record, nil
}

// ListForActor returns the actor's own history: records about them for
// patients, records they authored for doctors.
func (s *Service) ListForActor(ctx context.Context, actor Actor, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	var (
		records []*model.MedicalRecord
		err     error
	)
	switch actor.Role {
	case model.RoleDoctor:
		records, err = s.repo.ListForDoctor(ctx, actor.ProfileID, filters)
	default:
		records, err = s.repo.ListForPatient(ctx, actor.ProfileID, filters)
	}
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return records, nil
}

// Update applies corrective edits. Only the authoring doctor may edit.
func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("medical record", err)
		}
		return nil, apperrors.Store(err)
	}
	if actor.Role != model.RoleDoctor || record.DoctorID != actor.ProfileID {
		return nil, apperrors.Forbidden("only the authoring doctor can edit a medical record")
	}

	if req.Diagnosis != nil {
		record.Diagnosis = req.Diagnosis
	}
	if req.Symptoms != nil {
		record.Symptoms = req.Symptoms
	}
	if req.Prescription != nil {
		record.Prescription = req.Prescription
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}
	if req.FollowUpRequired != nil {
		record.FollowUpRequired = *req.FollowUpRequired
	}
	if req.FollowUpDate != nil {
		record.FollowUpDate = req.FollowUpDate
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, apperrors.Store(err)
	}
	return record, nil
}
