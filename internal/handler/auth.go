package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"imvu-insight-api/internal/middleware"
	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/service"
	"imvu-insight-api/pkg/apierror"
	"imvu-insight-api/pkg/response"
)

// AuthHandler serves login, refresh, and identity endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginRequest is the POST /auth/login body. The password arrives pre-hashed;
// the server compares hashes directly and never sees the cleartext.
type LoginRequest struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// RefreshRequest is the POST /auth/refresh body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is the payload of a successful login or refresh.
type AuthResponse struct {
	User   *model.User        `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

// MeResponse is the payload of GET /auth/me.
type MeResponse struct {
	User         *model.User `json:"user"`
	DeveloperIDs []int64     `json:"developer_ids"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	if req.Username == "" || req.PasswordHash == "" {
		response.Error(w, apierror.BadRequest("username and password_hash are required"))
		return
	}

	user, pair, err := h.auth.Login(r.Context(), req.Username, req.PasswordHash, clientInfo(r))
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Error(w, apierror.Unauthorized("invalid credentials"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, AuthResponse{User: user, Tokens: pair})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	if req.RefreshToken == "" {
		response.Error(w, apierror.BadRequest("refresh_token is required"))
		return
	}

	user, pair, err := h.auth.Refresh(r.Context(), req.RefreshToken, clientInfo(r))
	if errors.Is(err, service.ErrInvalidRefreshToken) {
		response.Error(w, apierror.Unauthorized("invalid refresh token"))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, AuthResponse{User: user, Tokens: pair})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	user, devIDs, err := h.auth.Me(r.Context(), principal.UserID)
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Error(w, apierror.Unauthorized(""))
		return
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, MeResponse{User: user, DeveloperIDs: devIDs})
}

func clientInfo(r *http.Request) service.ClientInfo {
	info := service.ClientInfo{}
	if ua := r.UserAgent(); ua != "" {
		info.UserAgent = &ua
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		info.IPAddress = &host
	}
	return info
}
