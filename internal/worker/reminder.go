package worker

import (
	"context"
	"time"

	"github.com/carelink/portal-api/internal/email"
	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	"github.com/carelink/portal-api/pkg/logger"
	"github.com/carelink/portal-api/pkg/metrics"
)

// ReminderWorker emails patients about tomorrow's confirmed appointments.
// Pending requests are deliberately skipped; nothing is reminded until the
// doctor has confirmed.
type ReminderWorker struct {
	appointments repository.AppointmentRepository
	profiles     repository.ProfileRepository
	email        email.Service
	logger       *logger.Logger
	metrics      *metrics.Metrics
	interval     time.Duration
}

func NewReminderWorker(
	appointments repository.AppointmentRepository,
	profiles repository.ProfileRepository,
	emailSvc email.Service,
	interval time.Duration,
	l *logger.Logger,
	m *metrics.Metrics,
) *ReminderWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReminderWorker{
		appointments: appointments,
		profiles:     profiles,
		email:        emailSvc,
		logger:       l,
		metrics:      m,
		interval:     interval,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("starting reminder worker")
	// Sent reminders are tracked per process run; the interval should be
	// long enough that tomorrow's batch is only attempted a few times.
	sent := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down reminder worker")
			return
		case <-ticker.C:
			w.run(ctx, sent)
		}
	}
}

func (w *ReminderWorker) run(ctx context.Context, sent map[string]struct{}) {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	appointments, err := w.appointments.ListConfirmedOnDate(ctx, tomorrow)
	if err != nil {
		w.logger.Error(err, "failed to list confirmed appointments", "date", tomorrow)
		return
	}

	for _, appt := range appointments {
		key := appt.ID.String()
		if _, done := sent[key]; done {
			continue
		}
		if err := w.remind(ctx, appt); err != nil {
			w.metrics.ReminderFailures.Inc()
			w.logger.Error(err, "failed to send reminder", "appointment_id", key)
			continue
		}
		sent[key] = struct{}{}
		w.metrics.RemindersSent.Inc()
	}
}

func (w *ReminderWorker) remind(ctx context.Context, appt *model.Appointment) error {
	patient, err := w.profiles.Get(ctx, appt.PatientID)
	if err != nil {
		return err
	}
	return w.email.SendAppointmentReminder(ctx, patient.Email, patient.FullName, appt.Date, appt.Time)
}
