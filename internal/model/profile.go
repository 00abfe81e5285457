package model

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two kinds of portal accounts. A profile has exactly
// one role and carries the matching sub-record only.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// Profile status constants
const (
	ProfileStatusActive  = "active"
	ProfileStatusPending = "pending"
	ProfileStatusLocked  = "locked"
)

// Profile is the identity-linked account record for both patients and doctors.
type Profile struct {
	Base
	Email            string     `json:"email" db:"email"`
	FullName         string     `json:"full_name" db:"full_name"`
	Phone            *string    `json:"phone,omitempty" db:"phone"`
	Role             Role       `json:"role" db:"role"`
	Status           string     `json:"status" db:"status"`
	Password         string     `json:"password,omitempty" db:"-"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	EmailVerified    bool       `json:"email_verified" db:"email_verified"`
	LoginAttempts    int        `json:"-" db:"login_attempts"`
	LastLoginAttempt time.Time  `json:"-" db:"last_login_attempt"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`

	// Exactly one of these is non-nil, matching Role.
	Doctor  *DoctorProfile  `json:"doctor,omitempty" db:"-"`
	Patient *PatientProfile `json:"patient,omitempty" db:"-"`
}

// DoctorProfile carries the doctor-specific attributes of a profile.
type DoctorProfile struct {
	Base
	ProfileID         uuid.UUID `json:"profile_id" db:"profile_id"`
	SpecialtyCategory string    `json:"specialty_category" db:"specialty_category"`
	LicenseNumber     string    `json:"license_number" db:"license_number"`
	PracticeName      *string   `json:"practice_name,omitempty" db:"practice_name"`
	Qualification     *string   `json:"qualification,omitempty" db:"qualification"`
	ExperienceYears   *int      `json:"experience_years,omitempty" db:"experience_years"`
	ConsultationFee   *float64  `json:"consultation_fee,omitempty" db:"consultation_fee"`
	Address           *string   `json:"address,omitempty" db:"address"`
	WorkingHoursStart string    `json:"working_hours_start" db:"working_hours_start"`
	WorkingHoursEnd   string    `json:"working_hours_end" db:"working_hours_end"`
}

// PatientProfile carries the patient-specific attributes of a profile.
type PatientProfile struct {
	Base
	ProfileID          uuid.UUID  `json:"profile_id" db:"profile_id"`
	IDNumber           string     `json:"id_number" db:"id_number"`
	MedicalAidNumber   *string    `json:"medical_aid_number,omitempty" db:"medical_aid_number"`
	Address            *string    `json:"address,omitempty" db:"address"`
	DateOfBirth        *string    `json:"date_of_birth,omitempty" db:"date_of_birth"`
	EmergencyContact   *string    `json:"emergency_contact,omitempty" db:"emergency_contact"`
	EmergencyPhone     *string    `json:"emergency_phone,omitempty" db:"emergency_phone"`
	MedicalHistory     *string    `json:"medical_history,omitempty" db:"medical_history"`
	CurrentMedications *string    `json:"current_medications,omitempty" db:"current_medications"`
	Allergies          *string    `json:"allergies,omitempty" db:"allergies"`
}

// Doctor is the directory view of a doctor: the profile joined with its
// doctor sub-record, as returned by search and availability endpoints.
type Doctor struct {
	DoctorProfile
	FullName string  `json:"full_name" db:"full_name"`
	Email    string  `json:"email" db:"email"`
	Phone    *string `json:"phone,omitempty" db:"phone"`
}

// DoctorFilters represents doctor directory search parameters
type DoctorFilters struct {
	Specialty  string `json:"specialty" form:"specialty"`
	SearchTerm string `json:"search" form:"search"`
}

type UpdatePatientRequest struct {
	Phone              *string    `json:"phone"`
	Address            *string    `json:"address"`
	DateOfBirth        *string    `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	MedicalAidNumber   *string    `json:"medical_aid_number"`
	EmergencyContact   *string    `json:"emergency_contact"`
	EmergencyPhone     *string    `json:"emergency_phone"`
	MedicalHistory     *string    `json:"medical_history"`
	CurrentMedications *string    `json:"current_medications"`
	Allergies          *string    `json:"allergies"`
}
