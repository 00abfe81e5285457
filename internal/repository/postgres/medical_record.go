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

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	query := `
		INSERT INTO medical_records (
			id, patient_id, doctor_id, appointment_id, visit_date,
			diagnosis, symptoms, prescription, notes,
			follow_up_required, follow_up_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := r.GetDB().ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		record.DoctorID,
		record.AppointmentID,
		record.VisitDate,
		record.Diagnosis,
		record.Symptoms,
		record.Prescription,
		record.Notes,
		record.FollowUpRequired,
		record.FollowUpDate,
		record.CreatedAt,
		record.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT * FROM medical_records WHERE id = $1 AND deleted_at IS NULL`

	var record model.MedicalRecord
	if err := r.GetDB().GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return &record, nil
}

func (r *medicalRecordRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	return r.list(ctx, "patient_id", patientID, filters)
}

func (r *medicalRecordRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	return r.list(ctx, "doctor_id", doctorID, filters)
}

func (r *medicalRecordRepository) list(ctx context.Context, column string, id uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	query := `SELECT * FROM medical_records WHERE ` + column + ` = $1 AND deleted_at IS NULL`
	args := []interface{}{id}

	if filters != nil {
		if filters.FromDate != "" {
			query += fmt.Sprintf(" AND visit_date >= $%d", len(args)+1)
			args = append(args, filters.FromDate)
		}
		if filters.ToDate != "" {
			query += fmt.Sprintf(" AND visit_date <= $%d", len(args)+1)
			args = append(args, filters.ToDate)
		}
	}

	query += " ORDER BY visit_date DESC, created_at DESC"

	var records []*model.MedicalRecord
	if err := r.GetDB().SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	record.UpdatedAt = time.Now()

	query := `
		UPDATE medical_records SET
			diagnosis = $2,
			symptoms = $3,
			prescription = $4,
			notes = $5,
			follow_up_required = $6,
			follow_up_date = $7,
			updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.GetDB().ExecContext(ctx, query,
		record.ID,
		record.Diagnosis,
		record.Symptoms,
		record.Prescription,
		record.Notes,
		record.FollowUpRequired,
		record.FollowUpDate,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update medical record: %w", err)
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
