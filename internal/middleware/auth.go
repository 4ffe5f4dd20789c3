package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/auth"
)

type contextKey struct{}

var claimsKey contextKey

// Authenticate requires a valid bearer token in the Authorization header and
// stores its claims in the request context.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				deny(w, r, http.StatusUnauthorized, "missing authorization header", nil)
				return
			}
			claims, err := auth.ValidateToken(jwtSecret, auth.TokenFromRequest(r))
			if err != nil {
				deny(w, r, http.StatusUnauthorized, "invalid token", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole lets through only the listed roles. Must run after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				deny(w, r, http.StatusUnauthorized, "not authenticated", nil)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				deny(w, r, http.StatusForbidden, "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireDevice restricts a route to sync agents holding a device token.
func RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			deny(w, r, http.StatusUnauthorized, "not authenticated", nil)
			return
		}
		if !claims.Device {
			deny(w, r, http.StatusForbidden, "device token required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// UserID returns the authenticated user, or uuid.Nil.
func UserID(ctx context.Context) uuid.UUID {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.UserID
	}
	return uuid.Nil
}

func deny(w http.ResponseWriter, r *http.Request, status int, msg string, cause error) {
	entry := log.WithFields(log.Fields{
		"path":       r.URL.Path,
		"status":     status,
		"request_id": chimw.GetReqID(r.Context()),
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Debug("request denied")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
