package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"imvu-insight-api/internal/model"
)

// UserByID returns the account with the given id, or nil when it does not
// exist or is deactivated.
func (s *Store) UserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		"SELECT * FROM users WHERE id = ? AND is_active = 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// UserByCredentials returns the active account matching username and password
// hash, or nil when the pair does not match.
func (s *Store) UserByCredentials(ctx context.Context, username, passwordHash string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		"SELECT * FROM users WHERE username = ? AND password_hash = ? AND is_active = 1",
		username, passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user by credentials: %w", err)
	}
	return &u, nil
}

// UpdateLastLogin stamps the account's last successful login.
func (s *Store) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?",
		at, at, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// CreateUser inserts a new account and sets its generated id.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (username, password_hash, is_admin, is_active, created_at, updated_at)
		VALUES (:username, :password_hash, :is_admin, :is_active, :created_at, :updated_at)`,
		u)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	return nil
}

// DeveloperIDsForUser returns the developer ids the user is entitled to see.
func (s *Store) DeveloperIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := s.db.SelectContext(ctx, &ids,
		"SELECT developer_user_id FROM user_developer WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load developer grants: %w", err)
	}
	return ids, nil
}

// GrantDeveloper links a developer id to a user, ignoring duplicates.
func (s *Store) GrantDeveloper(ctx context.Context, userID, developerUserID int64) error {
	verb := "INSERT OR IGNORE"
	if s.driver == "mysql" {
		verb = "INSERT IGNORE"
	}
	_, err := s.db.ExecContext(ctx,
		verb+" INTO user_developer (user_id, developer_user_id, created_at) VALUES (?, ?, ?)",
		userID, developerUserID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to grant developer access: %w", err)
	}
	return nil
}
