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

const doctorColumns = `
	d.id, d.profile_id, d.specialty_category, d.license_number, d.practice_name,
	d.qualification, d.experience_years, d.consultation_fee, d.address,
	d.working_hours_start, d.working_hours_end,
	d.created_at, d.updated_at, d.deleted_at,
	p.full_name, p.email, p.phone
`

func (r *doctorRepository) GetByProfileID(ctx context.Context, profileID uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctor_profiles d
		JOIN profiles p ON p.id = d.profile_id
		WHERE d.profile_id = $1 AND d.deleted_at IS NULL AND p.deleted_at IS NULL
	`
	var doctor model.Doctor
	if err := r.GetDB().GetContext(ctx, &doctor, query, profileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

// List returns active doctors matching the directory filters, ordered by name.
func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctor_profiles d
		JOIN profiles p ON p.id = d.profile_id
		WHERE d.deleted_at IS NULL AND p.deleted_at IS NULL AND p.status = 'active'
	`
	var args []interface{}

	if filters != nil {
		if filters.Specialty != "" {
			query += fmt.Sprintf(" AND d.specialty_category = $%d", len(args)+1)
			args = append(args, filters.Specialty)
		}
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(" AND (p.full_name ILIKE $%d OR d.practice_name ILIKE $%d)", len(args)+1, len(args)+1)
			args = append(args, "%"+filters.SearchTerm+"%")
		}
	}

	query += " ORDER BY p.full_name ASC"

	var doctors []*model.Doctor
	if err := r.GetDB().SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Update(ctx context.Context, profileID uuid.UUID, d *model.DoctorProfile) error {
	query := `
		UPDATE doctor_profiles SET
			specialty_category = $2,
			practice_name = $3,
			qualification = $4,
			experience_years = $5,
			consultation_fee = $6,
			address = $7,
			working_hours_start = $8,
			working_hours_end = $9,
			updated_at = $10
		WHERE profile_id = $1 AND deleted_at IS NULL
	`
	result, err := r.GetDB().ExecContext(ctx, query,
		profileID,
		d.SpecialtyCategory,
		d.PracticeName,
		d.Qualification,
		d.ExperienceYears,
		d.ConsultationFee,
		d.Address,
		d.WorkingHoursStart,
		d.WorkingHoursEnd,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor profile: %w", err)
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
