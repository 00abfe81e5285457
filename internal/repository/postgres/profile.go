package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
)

const profileColumns = `
	id, email, full_name, phone, role, status, password_hash,
	email_verified, login_attempts, last_login_attempt, last_login_at,
	created_at, updated_at, deleted_at
`

// Create writes the profile and its role sub-record in one transaction.
func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	profile.ID = uuid.New()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO profiles (
				id, email, full_name, phone, role, status, password_hash,
				email_verified, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		if _, err := tx.ExecContext(ctx, query,
			profile.ID,
			profile.Email,
			profile.FullName,
			profile.Phone,
			profile.Role,
			profile.Status,
			profile.PasswordHash,
			profile.EmailVerified,
			profile.CreatedAt,
			profile.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		switch profile.Role {
		case model.RoleDoctor:
			return r.createDoctorTx(ctx, tx, profile)
		case model.RolePatient:
			return r.createPatientTx(ctx, tx, profile)
		}
		return fmt.Errorf("unknown role %q", profile.Role)
	})
}

func (r *profileRepository) createDoctorTx(ctx context.Context, tx *sqlx.Tx, profile *model.Profile) error {
	d := profile.Doctor
	if d == nil {
		return fmt.Errorf("doctor profile details are required")
	}
	d.ID = uuid.New()
	d.ProfileID = profile.ID
	d.CreatedAt = profile.CreatedAt
	d.UpdatedAt = profile.CreatedAt

	query := `
		INSERT INTO doctor_profiles (
			id, profile_id, specialty_category, license_number, practice_name,
			qualification, experience_years, consultation_fee, address,
			working_hours_start, working_hours_end, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := tx.ExecContext(ctx, query,
		d.ID, d.ProfileID, d.SpecialtyCategory, d.LicenseNumber, d.PracticeName,
		d.Qualification, d.ExperienceYears, d.ConsultationFee, d.Address,
		d.WorkingHoursStart, d.WorkingHoursEnd, d.CreatedAt, d.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create doctor profile: %w", err)
	}
	return nil
}

func (r *profileRepository) createPatientTx(ctx context.Context, tx *sqlx.Tx, profile *model.Profile) error {
	p := profile.Patient
	if p == nil {
		return fmt.Errorf("patient profile details are required")
	}
	p.ID = uuid.New()
	p.ProfileID = profile.ID
	p.CreatedAt = profile.CreatedAt
	p.UpdatedAt = profile.CreatedAt

	query := `
		INSERT INTO patient_profiles (
			id, profile_id, id_number, medical_aid_number, address,
			date_of_birth, emergency_contact, emergency_phone,
			medical_history, current_medications, allergies,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := tx.ExecContext(ctx, query,
		p.ID, p.ProfileID, p.IDNumber, p.MedicalAidNumber, p.Address,
		p.DateOfBirth, p.EmergencyContact, p.EmergencyPhone,
		p.MedicalHistory, p.CurrentMedications, p.Allergies,
		p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create patient profile: %w", err)
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1 AND deleted_at IS NULL`

	var profile model.Profile
	if err := r.GetDB().GetContext(ctx, &profile, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if err := r.attachSubRecord(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`

	var profile model.Profile
	if err := r.GetDB().GetContext(ctx, &profile, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}

	if err := r.attachSubRecord(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) attachSubRecord(ctx context.Context, profile *model.Profile) error {
	switch profile.Role {
	case model.RoleDoctor:
		var d model.DoctorProfile
		query := `SELECT * FROM doctor_profiles WHERE profile_id = $1 AND deleted_at IS NULL`
		if err := r.GetDB().GetContext(ctx, &d, query, profile.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to get doctor profile: %w", err)
		}
		profile.Doctor = &d
	case model.RolePatient:
		var p model.PatientProfile
		query := `SELECT * FROM patient_profiles WHERE profile_id = $1 AND deleted_at IS NULL`
		if err := r.GetDB().GetContext(ctx, &p, query, profile.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to get patient profile: %w", err)
		}
		profile.Patient = &p
	}
	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now()

	query := `
		UPDATE profiles SET
			full_name = $2,
			phone = $3,
			status = $4,
			email_verified = $5,
			login_attempts = $6,
			last_login_attempt = $7,
			last_login_at = $8,
			updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.GetDB().ExecContext(ctx, query,
		profile.ID,
		profile.FullName,
		profile.Phone,
		profile.Status,
		profile.EmailVerified,
		profile.LoginAttempts,
		profile.LastLoginAttempt,
		profile.LastLoginAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
