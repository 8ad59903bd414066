package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
)

type ctxKey string

const principalKey ctxKey = "auth_principal"

// Principal is the caller identified by a verified bearer token
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// Authenticator verifies HS256 bearer tokens issued by the booking backend
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for secret. An empty secret
// rejects every token.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// ParseToken verifies tok and extracts the principal. The user id is read
// from the "id" claim, falling back to "sub".
func (a *Authenticator) ParseToken(tok string) (*Principal, error) {
	if len(a.secret) == 0 {
		return nil, fmt.Errorf("token verification is not configured")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	pr := &Principal{}
	pr.UserID, _ = claims["id"].(string)
	if pr.UserID == "" {
		pr.UserID, _ = claims["sub"].(string)
	}
	if pr.UserID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	pr.Email, _ = claims["email"].(string)
	pr.Role, _ = claims["role"].(string)
	return pr, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// principal in the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := observability.StartSpan(r.Context(), "auth.RequireAuth")
		defer span.End()

		authz := r.Header.Get("Authorization")
		if authz == "" {
			span.SetStatus(codes.Error, "missing authorization")
			writeUnauthorized(w, "missing authorization")
			return
		}

		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			span.SetStatus(codes.Error, "invalid authorization header")
			writeUnauthorized(w, "invalid authorization header")
			return
		}

		pr, err := a.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("Token validation failed")
			span.SetStatus(codes.Error, "token validation failed")
			writeUnauthorized(w, "invalid token")
			return
		}

		observability.SetSpanAttributes(span,
			attribute.String("user.id", pr.UserID),
			attribute.String("user.role", pr.Role),
		)

		ctx = context.WithValue(ctx, principalKey, pr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext extracts the Principal from ctx
func FromContext(ctx context.Context) (*Principal, bool) {
	pr, ok := ctx.Value(principalKey).(*Principal)
	return pr, ok
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
