package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/portal-api/internal/repository"
)

func (r *tokenRepository) StoreRefreshToken(ctx context.Context, profileID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (id, profile_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.GetDB().ExecContext(ctx, query, uuid.New(), profileID, token, expiresAt, time.Now()); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *tokenRepository) ValidateRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		SELECT profile_id FROM refresh_tokens
		WHERE token = $1 AND expires_at > NOW() AND revoked_at IS NULL
	`
	var profileID uuid.UUID
	if err := r.GetDB().GetContext(ctx, &profileID, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, repository.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to validate refresh token: %w", err)
	}
	return profileID, nil
}

func (r *tokenRepository) InvalidateRefreshToken(ctx context.Context, token string) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE token = $1 AND revoked_at IS NULL`
	if _, err := r.GetDB().ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to invalidate refresh token: %w", err)
	}
	return nil
}
