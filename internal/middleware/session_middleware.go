package middleware

import (
	"context"
	"net/http"
	"strings"

	"tracehub/internal/auth"
	"tracehub/internal/utils"
)

// SessionMiddleware validates session tokens for the project surface and
// adds the session to the request context. Handlers derive the
// session-shaped audit actor context from it.
func SessionMiddleware(secret []byte, required auth.MembershipRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing session token")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			session, err := auth.ParseSessionToken(tokenString, secret)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid session token")
				return
			}

			if !session.ProjectRole.HasPermission(required) {
				utils.RespondWithError(w, http.StatusForbidden, "Insufficient project role")
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession retrieves the session from the request context
func GetSession(ctx context.Context) (*auth.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*auth.Session)
	return session, ok
}
