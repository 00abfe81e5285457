package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carelink/portal-api/internal/model"
)

// Sentinel errors shared by all repository implementations. Services wrap
// these into the API error taxonomy.
var (
	ErrNotFound = errors.New("record not found")
	// ErrSlotTaken is returned by the conditional booking insert when a
	// non-cancelled appointment already holds the (doctor, date, time) slot.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrStatusConflict is returned when a compare-and-set status update
	// finds the appointment in a different status than expected.
	ErrStatusConflict = errors.New("appointment status changed concurrently")
)

// All repository interfaces in one file
type (
	// ProfileRepository handles account records and their role sub-records.
	ProfileRepository interface {
		// Create inserts the profile and its role sub-record in one transaction.
		Create(ctx context.Context, profile *model.Profile) error
		Get(ctx context.Context, id uuid.UUID) (*model.Profile, error)
		GetByEmail(ctx context.Context, email string) (*model.Profile, error)
		Update(ctx context.Context, profile *model.Profile) error
	}

	// DoctorRepository is the doctor directory. Doctors are addressed by
	// profile id, the participant identity used on appointments.
	DoctorRepository interface {
		GetByProfileID(ctx context.Context, profileID uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
		Update(ctx context.Context, profileID uuid.UUID, doctor *model.DoctorProfile) error
	}

	PatientRepository interface {
		GetByProfileID(ctx context.Context, profileID uuid.UUID) (*model.PatientProfile, error)
		Update(ctx context.Context, profileID uuid.UUID, patient *model.PatientProfile) error
	}

	// AppointmentRepository is the sole mutator of the appointments table.
	// Status changes go through compare-and-set operations so the state
	// machine invariant cannot be bypassed by concurrent writers.
	AppointmentRepository interface {
		// Create performs a conditional insert that fails with ErrSlotTaken
		// if a pending or confirmed appointment already occupies the
		// (doctor, date, time) slot.
		Create(ctx context.Context, appt *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ListForDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// BookedTimes returns the HH:MM times of pending and confirmed
		// appointments for the doctor on the given date.
		BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
		// Transition moves the appointment from one status to another,
		// stamping the matching timestamp column and writing the lifecycle
		// outbox event in the same transaction.
		Transition(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, fields *TransitionFields) (*model.Appointment, error)
		// CompleteWithRecord transitions confirmed->completed and inserts the
		// linked medical record atomically (both-or-neither).
		CompleteWithRecord(ctx context.Context, id uuid.UUID, fields *TransitionFields, record *model.MedicalRecord) (*model.Appointment, error)
		// ListConfirmedOnDate feeds the reminder worker.
		ListConfirmedOnDate(ctx context.Context, date string) ([]*model.Appointment, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
		ListForDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
		Update(ctx context.Context, record *model.MedicalRecord) error
	}

	TokenRepository interface {
		StoreRefreshToken(ctx context.Context, profileID uuid.UUID, token string, expiry time.Time) error
		ValidateRefreshToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateRefreshToken(ctx context.Context, token string) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		CreateTx(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
		ClaimPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	ContactRepository interface {
		Create(ctx context.Context, msg *model.ContactMessage) error
	}
)

// TransitionFields carries the optional column updates that accompany a
// status transition.
type TransitionFields struct {
	CancelReason *string
	Diagnosis    *string
	Prescription *string
	Symptoms     *string
	Notes        *string
}
