package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aidbridge-api/internal/domain"
	jwtinfra "github.com/aidbridge-api/internal/infrastructure/jwt"
)

type contextKey string

const sessionKey contextKey = "session"

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// SessionResolver turns verified claims into the caller's session context.
type SessionResolver interface {
	Current(ctx context.Context, userID, email, sessionID string) (*domain.SessionContext, error)
}

// Auth returns middleware that requires a valid Bearer JWT backed by an
// enabled session and injects the caller's session context. A nil verifier
// rejects every request.
func Auth(verifier TokenVerifier, sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			sc, status, msg := authenticate(r.Context(), verifier, sessions, tokenStr)
			if sc == nil {
				writeJSONError(w, status, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sc)))
		})
	}
}

func authenticate(ctx context.Context, verifier TokenVerifier, sessions SessionResolver, tokenStr string) (*domain.SessionContext, int, string) {
	if verifier == nil {
		return nil, http.StatusUnauthorized, "authentication is not configured"
	}
	claims, err := verifier.Verify(tokenStr)
	if err != nil {
		return nil, http.StatusUnauthorized, "invalid or expired token"
	}
	sc, err := sessions.Current(ctx, claims.UserID, claims.Email, claims.SessionID)
	switch {
	case err == nil:
		return sc, http.StatusOK, ""
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotFound):
		return nil, http.StatusUnauthorized, "session expired"
	default:
		slog.Error("resolve session", "user_id", claims.UserID, "err", err)
		return nil, http.StatusBadGateway, "unable to load session"
	}
}

// bearerToken reads the Authorization header. Websocket clients cannot set
// headers, so the access_token query parameter is accepted as a fallback.
func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if !strings.HasPrefix(h, "Bearer ") {
			return "", false
		}
		t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		return t, t != ""
	}
	if t := r.URL.Query().Get("access_token"); t != "" {
		return t, true
	}
	return "", false
}

// WithSession stores sc on ctx.
func WithSession(ctx context.Context, sc *domain.SessionContext) context.Context {
	return context.WithValue(ctx, sessionKey, sc)
}

// SessionFromContext extracts the caller's session context.
func SessionFromContext(ctx context.Context) (*domain.SessionContext, bool) {
	sc, ok := ctx.Value(sessionKey).(*domain.SessionContext)
	return sc, ok && sc != nil
}
