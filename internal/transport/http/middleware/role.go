package middleware

import (
	"net/http"

	"github.com/aidbridge-api/internal/domain"
)

// RequireRole returns middleware that allows access only to callers whose
// role is one of allowed.
func RequireRole(allowed ...domain.Role) func(http.Handler) http.Handler {
	return requireSession(func(sc *domain.SessionContext) bool {
		for _, role := range allowed {
			if sc.Role == role {
				return true
			}
		}
		return false
	})
}

// RequireHelper allows donors, moderators and admins.
func RequireHelper(next http.Handler) http.Handler {
	return requireSession(func(sc *domain.SessionContext) bool { return sc.Role.IsHelper() })(next)
}

func requireSession(allow func(*domain.SessionContext) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, ok := SessionFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !allow(sc) {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
