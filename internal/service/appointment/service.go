package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	apperrors "github.com/carelink/portal-api/pkg/errors"
	"github.com/carelink/portal-api/pkg/logger"
	"github.com/carelink/portal-api/pkg/metrics"
)

// Actor identifies who is performing an operation, as resolved from the
// access token.
type Actor struct {
	ProfileID uuid.UUID
	Role      model.Role
}

type Service struct {
	repo       repository.AppointmentRepository
	doctorRepo repository.DoctorRepository
	metrics    *metrics.Metrics
	logger     *logger.Logger
	now        func() time.Time
}

func NewService(repo repository.AppointmentRepository, doctorRepo repository.DoctorRepository, m *metrics.Metrics, l *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		doctorRepo: doctorRepo,
		metrics:    m,
		logger:     l,
		now:        time.Now,
	}
}

// Book creates a pending appointment for the acting patient. The slot must
// fall on one of the doctor's hourly boundaries and must not be in the past.
// Losing the race for a slot returns a slot-unavailable error, not a silent
// double booking.
func (s *Service) Book(ctx context.Context, actor Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if actor.Role != model.RolePatient {
		return nil, apperrors.Forbidden("only patients can book appointments")
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperrors.Validation("invalid doctor id", err)
	}

	doctor, err := s.doctorRepo.GetByProfileID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Store(err)
	}

	if err := s.validateSlot(doctor, req.Date, req.Time); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		PatientID: actor.ProfileID,
		DoctorID:  doctorID,
		Date:      req.Date,
		Time:      normalizeTime(req.Time),
		Reason:    req.Reason,
		Notes:     req.Notes,
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.metrics.BookingConflicts.Inc()
			return nil, apperrors.SlotUnavailable(req.Date, req.Time)
		}
		return nil, apperrors.Store(err)
	}

	s.metrics.AppointmentsBooked.Inc()
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID.String(),
		"doctor_id", doctorID.String(),
		"date", appt.Date,
		"time", appt.Time,
	)

	return appt, nil
}

func (s *Service) validateSlot(doctor *model.Doctor, date, slot string) error {
	if err := validateDate(date); err != nil {
		return apperrors.Validation("invalid appointment date", err)
	}

	when, err := time.Parse("2006-01-02 15:04", date+" "+normalizeTime(slot))
	if err != nil {
		return apperrors.Validation("invalid appointment time", err)
	}
	if when.Before(s.now()) {
		return apperrors.Validation("appointment cannot be in the past", nil)
	}

	if !SlotInWorkingHours(doctor.WorkingHoursStart, doctor.WorkingHoursEnd, slot) {
		return apperrors.Validation(fmt.Sprintf("time %s is outside working hours", slot), nil)
	}
	return nil
}

// Confirm moves a pending appointment to confirmed. Only the appointment's
// doctor may confirm.
func (s *Service) Confirm(ctx context.Context, actor Actor, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.getForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleDoctor || appt.DoctorID != actor.ProfileID {
		return nil, apperrors.Forbidden("only the appointment's doctor can confirm it")
	}
	if err := checkTransition(appt.Status, model.AppointmentStatusConfirmed, actor.Role); err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, id, appt.Status, model.AppointmentStatusConfirmed, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment confirmed", "appointment_id", id.String())
	return updated, nil
}

// Cancel moves an appointment to cancelled. Either participant may cancel
// a pending or confirmed appointment; terminal states are rejected.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*model.Appointment, error) {
	appt, err := s.getForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(appt.Status, model.AppointmentStatusCancelled, actor.Role); err != nil {
		return nil, err
	}

	fields := &repository.TransitionFields{}
	if reason != "" {
		fields.CancelReason = &reason
	}

	updated, err := s.transition(ctx, id, appt.Status, model.AppointmentStatusCancelled, fields)
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment cancelled",
		"appointment_id", id.String(),
		"cancelled_by", string(actor.Role),
	)
	return updated, nil
}

// Complete closes out a confirmed appointment and files the visit's medical
// record in the same transaction. Only the appointment's doctor may complete,
// and a diagnosis is required.
func (s *Service) Complete(ctx context.Context, actor Actor, id uuid.UUID, req *model.CompleteAppointmentRequest) (*model.Appointment, error) {
	appt, err := s.getForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleDoctor || appt.DoctorID != actor.ProfileID {
		return nil, apperrors.Forbidden("only the appointment's doctor can complete it")
	}
	if err := checkTransition(appt.Status, model.AppointmentStatusCompleted, actor.Role); err != nil {
		return nil, err
	}
	if req.Diagnosis == "" {
		return nil, apperrors.Validation("diagnosis is required to complete an appointment", nil)
	}

	fields := &repository.TransitionFields{
		Diagnosis:    &req.Diagnosis,
		Prescription: req.Prescription,
		Symptoms:     req.Symptoms,
		Notes:        req.Notes,
	}

	record := &model.MedicalRecord{
		PatientID:        appt.PatientID,
		DoctorID:         appt.DoctorID,
		AppointmentID:    &appt.ID,
		VisitDate:        appt.Date,
		Diagnosis:        fields.Diagnosis,
		Symptoms:         fields.Symptoms,
		Prescription:     fields.Prescription,
		Notes:            fields.Notes,
		FollowUpRequired: req.FollowUpRequired,
		FollowUpDate:     req.FollowUpDate,
	}

	updated, err := s.repo.CompleteWithRecord(ctx, id, fields, record)
	if err != nil {
		return nil, s.mapTransitionErr(ctx, id, model.AppointmentStatusCompleted, err)
	}

	s.metrics.AppointmentsCompleted.Inc()
	s.logger.Info("appointment completed", "appointment_id", id.String())
	return updated, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, fields *repository.TransitionFields) (*model.Appointment, error) {
	updated, err := s.repo.Transition(ctx, id, from, to, fields)
	if err != nil {
		return nil, s.mapTransitionErr(ctx, id, to, err)
	}
	return updated, nil
}

func (s *Service) mapTransitionErr(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("appointment", err)
	case errors.Is(err, repository.ErrStatusConflict):
		// The status moved under us. Re-read so the error names the
		// actual state.
		current, getErr := s.repo.Get(ctx, id)
		if getErr == nil {
			return apperrors.InvalidTransition(string(current.Status), string(to))
		}
		return apperrors.InvalidTransition("unknown", string(to))
	default:
		return apperrors.Store(err)
	}
}

// Get returns the appointment if the actor is one of its participants.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.getForActor(ctx, actor, id)
}

func (s *Service) getForActor(ctx context.Context, actor Actor, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Store(err)
	}
	if appt.PatientID != actor.ProfileID && appt.DoctorID != actor.ProfileID {
		return nil, apperrors.Forbidden("appointment belongs to another profile")
	}
	return appt, nil
}

// ListForActor returns the actor's own appointments, newest first.
func (s *Service) ListForActor(ctx context.Context, actor Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var (
		appts []*model.Appointment
		err   error
	)
	switch actor.Role {
	case model.RoleDoctor:
		appts, err = s.repo.ListForDoctor(ctx, actor.ProfileID, filters)
	default:
		appts, err = s.repo.ListForPatient(ctx, actor.ProfileID, filters)
	}
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return appts, nil
}

// Availability returns the doctor's free hourly slots on a date. Cancelled
// appointments release their slot.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	if err := validateDate(date); err != nil {
		return nil, apperrors.Validation("invalid date", err)
	}

	doctor, err := s.doctorRepo.GetByProfileID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Store(err)
	}

	booked, err := s.repo.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, apperrors.Store(err)
	}

	return AvailableSlots(doctor.WorkingHoursStart, doctor.WorkingHoursEnd, booked), nil
}
