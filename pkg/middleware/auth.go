package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/littlelemon/pkg/auth"
	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/metrics"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
	"github.com/shashiranjanraj/littlelemon/pkg/response"
)

// PrincipalProvider resolves a user id to its current role memberships. It
// returns rbac.ErrUnknownPrincipal when the user no longer exists.
type PrincipalProvider interface {
	Principal(ctx context.Context, userID uint) (rbac.Principal, error)
}

// Authenticate requires a valid bearer token, resolves the caller through
// provider and stores the principal in the request context. Both "Bearer"
// and "Token" schemes are accepted.
func Authenticate(provider PrincipalProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				deny(w, "Authentication credentials were not provided.")
				return
			}

			claims, err := auth.ValidateToken(token)
			if err != nil {
				deny(w, "Invalid token.")
				return
			}

			p, err := provider.Principal(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, rbac.ErrUnknownPrincipal) {
					logger.WithCtx(r.Context()).Error("resolve principal", "user_id", claims.UserID, "error", err)
					response.Error(w, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				deny(w, "Invalid token.")
				return
			}

			ctx := rbac.WithPrincipal(r.Context(), p)
			ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("user_id", p.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(h) > len(scheme) && strings.EqualFold(h[:len(scheme)], scheme) {
			return strings.TrimSpace(h[len(scheme):])
		}
	}
	return ""
}

func deny(w http.ResponseWriter, msg string) {
	metrics.AccessDenied.WithLabelValues("unauthenticated").Inc()
	response.Error(w, http.StatusUnauthorized, msg)
}
