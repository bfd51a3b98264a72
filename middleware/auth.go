package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Dosada05/matchkid/models"
	"github.com/Dosada05/matchkid/services"
	"github.com/Dosada05/matchkid/utils"
)

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session services.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext returns the session stored by Authenticate, or a zero
// session when the request is anonymous.
func SessionFromContext(ctx context.Context) services.Session {
	session, _ := ctx.Value(sessionContextKey).(services.Session)
	return session
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's session in the request context.
func Authenticate(tokens *utils.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
				message := "invalid token"
				if errors.Is(err, utils.ErrTokenExpired) {
					message = "token expired"
				}
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			role := models.Role(claims.Role)
			if role != models.RoleAdmin {
				role = models.RoleCoach
			}
			ctx := WithSession(r.Context(), services.Session{UserID: claims.UserID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize lets the request through only when the session role is one of roles.
// It must run after Authenticate.
func Authorize(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session.IsZero() {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			zerolog.Ctx(r.Context()).Warn().
				Str("user_id", session.UserID.String()).
				Str("role", string(session.Role)).
				Msg("access denied")
			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}
