package model

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthRequest types
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegisterRequest creates a profile plus the sub-record matching Role.
// Exactly one of Doctor/Patient must be present.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone"`
	Role     Role    `json:"role" binding:"required,oneof=patient doctor"`

	Doctor  *DoctorRegistration  `json:"doctor"`
	Patient *PatientRegistration `json:"patient"`
}

type DoctorRegistration struct {
	SpecialtyCategory string   `json:"specialty_category" binding:"required"`
	LicenseNumber     string   `json:"license_number" binding:"required"`
	PracticeName      *string  `json:"practice_name"`
	Qualification     *string  `json:"qualification"`
	ExperienceYears   *int     `json:"experience_years" binding:"omitempty,min=0"`
	ConsultationFee   *float64 `json:"consultation_fee" binding:"omitempty,min=0"`
	Address           *string  `json:"address"`
	WorkingHoursStart string   `json:"working_hours_start" binding:"omitempty,datetime=15:04"`
	WorkingHoursEnd   string   `json:"working_hours_end" binding:"omitempty,datetime=15:04"`
}

type PatientRegistration struct {
	IDNumber         string     `json:"id_number" binding:"required"`
	MedicalAidNumber *string    `json:"medical_aid_number"`
	Address          *string    `json:"address"`
	DateOfBirth      *string    `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	EmergencyContact *string    `json:"emergency_contact"`
	EmergencyPhone   *string    `json:"emergency_phone"`
	MedicalHistory   *string    `json:"medical_history"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse types
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	Profile      *Profile `json:"profile,omitempty"`
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	jwt.RegisteredClaims
	ProfileID uuid.UUID `json:"profile_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
}
