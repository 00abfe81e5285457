package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Terminal reports whether no further transition is permitted from s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Appointment represents a requested or scheduled visit. Date is a calendar
// day (YYYY-MM-DD) and Time a slot-aligned HH:MM; both sides of the visit are
// referenced by profile id and neither owns the record exclusively.
type Appointment struct {
	Base
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Date         string            `db:"appointment_date" json:"appointment_date"`
	Time         string            `db:"appointment_time" json:"appointment_time"`
	Reason       string            `db:"reason" json:"reason"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Diagnosis    *string           `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription *string           `db:"prescription" json:"prescription,omitempty"`
	Symptoms     *string           `db:"symptoms" json:"symptoms,omitempty"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	ConfirmedAt  *time.Time        `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time        `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

type CreateAppointmentRequest struct {
	DoctorID string  `json:"doctor_id" binding:"required,uuid"`
	Date     string  `json:"appointment_date" binding:"required,datetime=2006-01-02"`
	Time     string  `json:"appointment_time" binding:"required,datetime=15:04"`
	Reason   string  `json:"reason" binding:"required,max=1000"`
	Notes    *string `json:"notes" binding:"omitempty,max=1000"`
}

type CancelAppointmentRequest struct {
	Reason *string `json:"reason" binding:"omitempty,max=500"`
}

// CompleteAppointmentRequest carries the visit outcome a doctor attaches when
// closing out a confirmed appointment.
type CompleteAppointmentRequest struct {
	Diagnosis        string  `json:"diagnosis" binding:"required,max=2000"`
	Prescription     *string `json:"prescription" binding:"omitempty,max=2000"`
	Symptoms         *string `json:"symptoms" binding:"omitempty,max=2000"`
	Notes            *string `json:"notes" binding:"omitempty,max=2000"`
	FollowUpRequired bool    `json:"follow_up_required"`
	FollowUpDate     *string `json:"follow_up_date" binding:"omitempty,datetime=2006-01-02"`
}

type AppointmentFilters struct {
	Status   AppointmentStatus `form:"status"`
	FromDate string            `form:"from_date"`
	ToDate   string            `form:"to_date"`
}
