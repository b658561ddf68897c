package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/repository"
)

var (
	// ErrInvalidCredentials is returned when username and password hash do
	// not match an active account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken is returned when a refresh token is unknown,
	// revoked, or expired.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// TokenPair is what a successful login or refresh hands to the client.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
}

// ClientInfo carries optional request metadata stored with refresh tokens.
type ClientInfo struct {
	UserAgent *string
	IPAddress *string
}

// AuthService owns login, refresh rotation, and identity lookups.
type AuthService struct {
	store  *repository.Store
	tokens *TokenService
	log    *zap.Logger
}

// NewAuthService wires the auth flows.
func NewAuthService(store *repository.Store, tokens *TokenService, log *zap.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, log: log}
}

// Login verifies a username and pre-hashed password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, passwordHash string, client ClientInfo) (*model.User, *TokenPair, error) {
	user, err := s.store.UserByCredentials(ctx, username, passwordHash)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user, client)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.log.Warn("failed to stamp last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Unknown, revoked, and expired tokens are rejected alike.
func (s *AuthService) Refresh(ctx context.Context, refreshValue string, client ClientInfo) (*model.User, *TokenPair, error) {
	hash := HashRefreshValue(refreshValue)
	tok, err := s.store.RefreshTokenByHash(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	if tok == nil || tok.RevokedAt != nil || now.After(tok.ExpiresAt) {
		return nil, nil, ErrInvalidRefreshToken
	}
	user, err := s.store.UserByID(ctx, tok.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	if err := s.store.RevokeRefreshToken(ctx, hash, now); err != nil {
		return nil, nil, err
	}
	pair, err := s.issuePair(ctx, user, client)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Me returns the account and its granted developer ids.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, []int64, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	devIDs, err := s.store.DeveloperIDsForUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, devIDs, nil
}

func (s *AuthService) issuePair(ctx context.Context, user *model.User, client ClientInfo) (*TokenPair, error) {
	access, expiresAt, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	value, hash, err := s.tokens.NewRefreshValue()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	err = s.store.CreateRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokens.RefreshTTL()),
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, ExpiresAt: expiresAt, RefreshToken: value}, nil
}
