package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carelink/portal-api/internal/email"
	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	"github.com/carelink/portal-api/pkg/logger"
	"github.com/carelink/portal-api/pkg/messaging"
)

// NotifierWorker consumes published appointment events and emails the patient
// when a doctor confirms or cancels. Booked and completed events are not
// mailed; booking has its own response path and completion is delivered
// through the medical record.
type NotifierWorker struct {
	broker   messaging.Broker
	profiles repository.ProfileRepository
	email    email.Service
	logger   *logger.Logger
}

func NewNotifierWorker(
	broker messaging.Broker,
	profiles repository.ProfileRepository,
	emailSvc email.Service,
	l *logger.Logger,
) *NotifierWorker {
	return &NotifierWorker{
		broker:   broker,
		profiles: profiles,
		email:    emailSvc,
		logger:   l,
	}
}

func (w *NotifierWorker) Start(ctx context.Context) error {
	confirmed, err := w.broker.Subscribe(ctx, model.EventAppointmentConfirmed)
	if err != nil {
		return fmt.Errorf("failed to subscribe to confirmed events: %w", err)
	}
	cancelled, err := w.broker.Subscribe(ctx, model.EventAppointmentCancelled)
	if err != nil {
		return fmt.Errorf("failed to subscribe to cancelled events: %w", err)
	}

	w.logger.Info("starting notifier worker")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down notifier worker")
			return nil
		case payload, ok := <-confirmed:
			if !ok {
				return nil
			}
			w.handle(ctx, payload, "Appointment confirmed",
				"Hi %s,\n\nYour appointment on %s at %s has been confirmed.\n")
		case payload, ok := <-cancelled:
			if !ok {
				return nil
			}
			w.handle(ctx, payload, "Appointment cancelled",
				"Hi %s,\n\nYour appointment on %s at %s has been cancelled.\n")
		}
	}
}

func (w *NotifierWorker) handle(ctx context.Context, payload []byte, subject, bodyFormat string) {
	var event model.AppointmentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		w.logger.Error(err, "failed to decode appointment event")
		return
	}

	patient, err := w.profiles.Get(ctx, event.PatientID)
	if err != nil {
		w.logger.Error(err, "failed to load patient for notification",
			"appointment_id", event.AppointmentID.String())
		return
	}

	body := fmt.Sprintf(bodyFormat, patient.FullName, event.Date, event.Time)
	if err := w.email.SendCustom(ctx, patient.Email, subject, body); err != nil {
		w.logger.Error(err, "failed to send status notification",
			"appointment_id", event.AppointmentID.String())
		return
	}

	w.logger.Debug("status notification sent",
		"appointment_id", event.AppointmentID.String(),
		"subject", subject,
	)
}
