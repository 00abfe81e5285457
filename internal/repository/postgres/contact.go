package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/portal-api/internal/model"
)

func (r *contactRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()

	query := `
		INSERT INTO contact_messages (id, name, email, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.GetDB().ExecContext(ctx, query,
		msg.ID,
		msg.Name,
		msg.Email,
		msg.Message,
		msg.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}
