package model

import (
	"github.com/google/uuid"
)

// MedicalRecord is the immutable visit history entry written when a doctor
// completes an appointment. Corrective edits are allowed only to the
// authoring doctor.
type MedicalRecord struct {
	Base
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID    *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	VisitDate        string     `db:"visit_date" json:"visit_date"`
	Diagnosis        *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Symptoms         *string    `db:"symptoms" json:"symptoms,omitempty"`
	Prescription     *string    `db:"prescription" json:"prescription,omitempty"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	FollowUpRequired bool       `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate     *string    `db:"follow_up_date" json:"follow_up_date,omitempty"`
}

type CreateMedicalRecordRequest struct {
	PatientID        string  `json:"patient_id" binding:"required,uuid"`
	AppointmentID    *string `json:"appointment_id" binding:"omitempty,uuid"`
	VisitDate        string  `json:"visit_date" binding:"required,datetime=2006-01-02"`
	Diagnosis        *string `json:"diagnosis" binding:"omitempty,max=2000"`
	Symptoms         *string `json:"symptoms" binding:"omitempty,max=2000"`
	Prescription     *string `json:"prescription" binding:"omitempty,max=2000"`
	Notes            *string `json:"notes" binding:"omitempty,max=2000"`
	FollowUpRequired bool    `json:"follow_up_required"`
	FollowUpDate     *string `json:"follow_up_date" binding:"omitempty,datetime=2006-01-02"`
}

type UpdateMedicalRecordRequest struct {
	Diagnosis        *string `json:"diagnosis" binding:"omitempty,max=2000"`
	Symptoms         *string `json:"symptoms" binding:"omitempty,max=2000"`
	Prescription     *string `json:"prescription" binding:"omitempty,max=2000"`
	Notes            *string `json:"notes" binding:"omitempty,max=2000"`
	FollowUpRequired *bool   `json:"follow_up_required"`
	FollowUpDate     *string `json:"follow_up_date" binding:"omitempty,datetime=2006-01-02"`
}

type RecordFilters struct {
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
}
