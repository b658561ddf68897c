package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"imvu-insight-api/internal/model"
)

// CreateRefreshToken stores the hashed refresh token record.
func (s *Store) CreateRefreshToken(ctx context.Context, tok *model.RefreshToken) error {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO refresh_tokens
			(user_id, token_hash, issued_at, expires_at, revoked_at, user_agent, ip_address)
		VALUES
			(:user_id, :token_hash, :issued_at, :expires_at, :revoked_at, :user_agent, :ip_address)`,
		tok)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read refresh token id: %w", err)
	}
	tok.ID = id
	return nil
}

// RefreshTokenByHash returns the token record for a hash, or nil when absent.
func (s *Store) RefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	var tok model.RefreshToken
	err := s.db.GetContext(ctx, &tok,
		"SELECT * FROM refresh_tokens WHERE token_hash = ?", hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	return &tok, nil
}

// RevokeRefreshToken marks the token unusable. Revoking an already revoked
// token is a no-op.
func (s *Store) RevokeRefreshToken(ctx context.Context, hash string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL",
		at, hash)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}
