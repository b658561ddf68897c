package middleware

import (
	"context"
	"net/http"
	"strings"

	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/service"
	"imvu-insight-api/pkg/apierror"
	"imvu-insight-api/pkg/response"
)

// PrincipalKey is the context key for the authenticated principal.
const PrincipalKey contextKey = "principal"

// NewAuth creates a bearer-token authentication middleware. Missing,
// malformed, expired, and wrong-type tokens are all rejected with the same
// 401 so callers learn nothing about why.
func NewAuth(tokens *service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				response.Error(w, apierror.Unauthorized("invalid or expired token"))
				return
			}

			principal, err := tokens.ParseAccess(token)
			if err != nil {
				response.Error(w, apierror.Unauthorized("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal retrieves the authenticated principal from context.
func GetPrincipal(ctx context.Context) *model.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*model.Principal); ok {
		return p
	}
	return nil
}
