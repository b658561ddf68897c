package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"imvu-insight-api/internal/config"
	"imvu-insight-api/internal/model"
)

// ErrInvalidToken covers every access-token rejection: malformed, expired,
// bad signature, or wrong token type. Callers present them all the same way.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the signed payload of a short-lived access token.
type AccessClaims struct {
	Name string `json:"name"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService issues HS256 access tokens and opaque refresh tokens.
// Refresh token values are random; only their SHA-256 hash is ever stored.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService builds the token issuer from auth config.
func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// RefreshTTL exposes the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// IssueAccess signs an access token for the user and returns it with its
// expiry time.
func (s *TokenService) IssueAccess(user *model.User) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.accessTTL)
	claims := AccessClaims{
		Name: user.Username,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccess validates an access token and returns the principal it names.
func (s *TokenService) ParseAccess(token string) (*model.Principal, error) {
	var claims AccessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != "access" {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &model.Principal{UserID: userID, UserName: claims.Name}, nil
}

// NewRefreshValue generates an opaque refresh token value and the hash under
// which it is persisted.
func (s *TokenService) NewRefreshValue() (value, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	value = hex.EncodeToString(buf)
	return value, HashRefreshValue(value), nil
}

// HashRefreshValue maps a presented refresh token value to its storage hash.
func HashRefreshValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
