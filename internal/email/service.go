package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/carelink/portal-api/pkg/logger"
)

type Service interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendAppointmentReminder(ctx context.Context, to, name, date, slot string) error
	SendContactNotification(ctx context.Context, from, name, message string) error
	SendCustom(ctx context.Context, to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// OperatorAddress receives contact form notifications.
	OperatorAddress string
}

type smtpService struct {
	dialer *gomail.Dialer
	cfg    Config
	logger *logger.Logger
}

func NewSMTPService(cfg Config, l *logger.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cfg:    cfg,
		logger: l,
	}
}

func (s *smtpService) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour account is ready. You can now browse doctors and book appointments.\n", name)
	return s.send(ctx, to, "Welcome to the patient portal", body)
}

func (s *smtpService) SendAppointmentReminder(ctx context.Context, to, name, date, slot string) error {
	body := fmt.Sprintf("Hi %s,\n\nThis is a reminder of your appointment on %s at %s.\n", name, date, slot)
	return s.send(ctx, to, "Appointment reminder", body)
}

func (s *smtpService) SendContactNotification(ctx context.Context, from, name, message string) error {
	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", name, from, message)
	return s.send(ctx, s.cfg.OperatorAddress, "New contact message", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("email sent", "to", to, "subject", subject)
	return nil
}

// NoopService is used when SMTP is not configured, e.g. local development.
type NoopService struct{}

func (NoopService) SendWelcome(context.Context, string, string) error { return nil }
func (NoopService) SendAppointmentReminder(context.Context, string, string, string, string) error {
	return nil
}
func (NoopService) SendContactNotification(context.Context, string, string, string) error {
	return nil
}
func (NoopService) SendCustom(context.Context, string, string, string) error { return nil }
