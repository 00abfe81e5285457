package contact

import (
	"context"

	"github.com/carelink/portal-api/internal/email"
	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	apperrors "github.com/carelink/portal-api/pkg/errors"
	"github.com/carelink/portal-api/pkg/logger"
)

type Service struct {
	repo   repository.ContactRepository
	email  email.Service
	logger *logger.Logger
}

func NewService(repo repository.ContactRepository, emailSvc email.Service, l *logger.Logger) *Service {
	return &Service{repo: repo, email: emailSvc, logger: l}
}

// Submit stores the message and notifies the operators. A notification
// failure does not fail the submission.
func (s *Service) Submit(ctx context.Context, req *model.ContactRequest) (*model.ContactMessage, error) {
	msg := &model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, apperrors.Store(err)
	}

	if err := s.email.SendContactNotification(ctx, msg.Email, msg.Name, msg.Message); err != nil {
		s.logger.Error(err, "failed to send contact notification", "message_id", msg.ID.String())
	}
	return msg, nil
}
