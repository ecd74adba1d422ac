package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prahasith1996/video-player/internal/httputil"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

// SessionAuth guards the per-session routes. The token must have been issued
// for the session named in the {id} URL parameter.
type SessionAuth struct {
	secret string
}

func NewSessionAuth(secret string) *SessionAuth {
	return &SessionAuth{secret: secret}
}

func (a *SessionAuth) Issue(sessionID string) (string, error) {
	return GenerateSessionToken(a.secret, sessionID)
}

func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := ValidateToken(a.secret, tokenStr)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if claims.TokenType != tokenTypeSession {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token type")
			return
		}

		if id := chi.URLParam(r, "id"); id != "" && id != claims.SessionID {
			httputil.WriteError(w, http.StatusForbidden, "token does not grant access to this session")
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, claims.SessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SessionIDFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionIDKey).(string)
	return sessionID
}
