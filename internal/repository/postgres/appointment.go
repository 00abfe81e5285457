package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
)

const appointmentColumns = `
	id, patient_id, doctor_id, appointment_date, appointment_time,
	reason, notes, status, diagnosis, prescription, symptoms,
	cancel_reason, confirmed_at, cancelled_at,
	created_at, updated_at, deleted_at
`

// Create inserts the appointment only if no pending or confirmed appointment
// already holds the same (doctor, date, time) slot. The availability check
// and the write happen in one statement, so two racing bookings cannot both
// succeed.
func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	appt.ID = uuid.New()
	appt.Status = model.AppointmentStatusPending
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt

	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, appointment_date, appointment_time,
			reason, notes, status, created_at, updated_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $3
			AND appointment_date = $4
			AND appointment_time = $5
			AND status IN ('pending', 'confirmed')
		)
	`

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			appt.ID,
			appt.PatientID,
			appt.DoctorID,
			appt.Date,
			appt.Time,
			appt.Reason,
			appt.Notes,
			appt.Status,
			appt.CreatedAt,
			appt.UpdatedAt,
		)
		if err != nil {
			// The slot index can still reject a booking that raced past the
			// NOT EXISTS check.
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return repository.ErrSlotTaken
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrSlotTaken
		}

		return r.appendEventTx(ctx, tx, model.EventAppointmentBooked, appt)
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND deleted_at IS NULL`

	var appt model.Appointment
	if err := r.GetDB().GetContext(ctx, &appt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return r.listForParticipant(ctx, "patient_id", patientID, filters)
}

func (r *appointmentRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return r.listForParticipant(ctx, "doctor_id", doctorID, filters)
}

func (r *appointmentRepository) listForParticipant(ctx context.Context, column string, participantID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE ` + column + ` = $1 AND deleted_at IS NULL`
	args := []interface{}{participantID}

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", len(args)+1)
			args = append(args, filters.Status)
		}
		if filters.FromDate != "" {
			query += fmt.Sprintf(" AND appointment_date >= $%d", len(args)+1)
			args = append(args, filters.FromDate)
		}
		if filters.ToDate != "" {
			query += fmt.Sprintf(" AND appointment_date <= $%d", len(args)+1)
			args = append(args, filters.ToDate)
		}
	}

	query += " ORDER BY created_at DESC"

	var appointments []*model.Appointment
	if err := r.GetDB().SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	query := `
		SELECT appointment_time FROM appointments
		WHERE doctor_id = $1
		AND appointment_date = $2
		AND status IN ('pending', 'confirmed')
		AND deleted_at IS NULL
		ORDER BY appointment_time ASC
	`
	var times []string
	if err := r.GetDB().SelectContext(ctx, &times, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to get booked times: %w", err)
	}
	return times, nil
}

// Transition performs a compare-and-set on the status column. A concurrent
// transition loses the race and surfaces as ErrStatusConflict rather than
// silently overwriting.
func (r *appointmentRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, fields *repository.TransitionFields) (*model.Appointment, error) {
	var appt *model.Appointment

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		updated, err := r.transitionTx(ctx, tx, id, from, to, fields)
		if err != nil {
			return err
		}
		appt = updated
		return r.appendEventTx(ctx, tx, eventTypeFor(to), appt)
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (r *appointmentRepository) CompleteWithRecord(ctx context.Context, id uuid.UUID, fields *repository.TransitionFields, record *model.MedicalRecord) (*model.Appointment, error) {
	var appt *model.Appointment

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		updated, err := r.transitionTx(ctx, tx, id, model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted, fields)
		if err != nil {
			return err
		}
		appt = updated

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
		if _, err := tx.ExecContext(ctx, query,
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

		return r.appendEventTx(ctx, tx, model.EventAppointmentCompleted, appt)
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (r *appointmentRepository) transitionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.AppointmentStatus, fields *repository.TransitionFields) (*model.Appointment, error) {
	now := time.Now()

	query := `
		UPDATE appointments SET
			status = $3,
			updated_at = $4,
			confirmed_at = CASE WHEN $3 = 'confirmed' THEN $4 ELSE confirmed_at END,
			cancelled_at = CASE WHEN $3 = 'cancelled' THEN $4 ELSE cancelled_at END,
			cancel_reason = COALESCE($5, cancel_reason),
			diagnosis = COALESCE($6, diagnosis),
			prescription = COALESCE($7, prescription),
			symptoms = COALESCE($8, symptoms),
			notes = COALESCE($9, notes)
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL
		RETURNING ` + appointmentColumns

	if fields == nil {
		fields = &repository.TransitionFields{}
	}

	var appt model.Appointment
	err := tx.QueryRowxContext(ctx, query,
		id, from, to, now,
		fields.CancelReason,
		fields.Diagnosis,
		fields.Prescription,
		fields.Symptoms,
		fields.Notes,
	).StructScan(&appt)
	if err == nil {
		return &appt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}

	// Distinguish a missing appointment from a lost status race.
	var current model.AppointmentStatus
	probeErr := tx.GetContext(ctx, &current, `SELECT status FROM appointments WHERE id = $1 AND deleted_at IS NULL`, id)
	if errors.Is(probeErr, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if probeErr != nil {
		return nil, fmt.Errorf("failed to check appointment status: %w", probeErr)
	}
	return nil, fmt.Errorf("expected status %s, found %s: %w", from, current, repository.ErrStatusConflict)
}

func (r *appointmentRepository) ListConfirmedOnDate(ctx context.Context, date string) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
		WHERE appointment_date = $1 AND status = 'confirmed' AND deleted_at IS NULL
		ORDER BY appointment_time ASC`

	var appointments []*model.Appointment
	if err := r.GetDB().SelectContext(ctx, &appointments, query, date); err != nil {
		return nil, fmt.Errorf("failed to list confirmed appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) appendEventTx(ctx context.Context, tx *sqlx.Tx, eventType string, appt *model.Appointment) error {
	payload, err := json.Marshal(model.AppointmentEvent{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		Date:          appt.Date,
		Time:          appt.Time,
		Status:        appt.Status,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return r.outbox.CreateTx(ctx, tx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	})
}

func eventTypeFor(status model.AppointmentStatus) string {
	switch status {
	case model.AppointmentStatusConfirmed:
		return model.EventAppointmentConfirmed
	case model.AppointmentStatusCancelled:
		return model.EventAppointmentCancelled
	case model.AppointmentStatusCompleted:
		return model.EventAppointmentCompleted
	}
	return model.EventAppointmentBooked
}
