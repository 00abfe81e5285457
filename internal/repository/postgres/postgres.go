package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/carelink/portal-api/internal/repository"
)

type profileRepository struct {
	BaseRepository
}

type doctorRepository struct {
	BaseRepository
}

type patientRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
	outbox repository.OutboxRepository
}

type medicalRecordRepository struct {
	BaseRepository
}

type tokenRepository struct {
	BaseRepository
}

type contactRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{NewBaseRepository(db)}
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{NewBaseRepository(db)}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB, outbox repository.OutboxRepository) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db), outbox}
}

func NewMedicalRecordRepository(db *sqlx.DB) repository.MedicalRecordRepository {
	return &medicalRecordRepository{NewBaseRepository(db)}
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{NewBaseRepository(db)}
}

func NewContactRepository(db *sqlx.DB) repository.ContactRepository {
	return &contactRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}
