package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
)

func (r *patientRepository) GetByProfileID(ctx context.Context, profileID uuid.UUID) (*model.PatientProfile, error) {
	query := `SELECT * FROM patient_profiles WHERE profile_id = $1 AND deleted_at IS NULL`

	var patient model.PatientProfile
	if err := r.GetDB().GetContext(ctx, &patient, query, profileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient profile: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, profileID uuid.UUID, p *model.PatientProfile) error {
	query := `
		UPDATE patient_profiles SET
			medical_aid_number = $2,
			address = $3,
			date_of_birth = $4,
			emergency_contact = $5,
			emergency_phone = $6,
			medical_history = $7,
			current_medications = $8,
			allergies = $9,
			updated_at = $10
		WHERE profile_id = $1 AND deleted_at IS NULL
	`
	result, err := r.GetDB().ExecContext(ctx, query,
		profileID,
		p.MedicalAidNumber,
		p.Address,
		p.DateOfBirth,
		p.EmergencyContact,
		p.EmergencyPhone,
		p.MedicalHistory,
		p.CurrentMedications,
		p.Allergies,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update patient profile: %w", err)
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
