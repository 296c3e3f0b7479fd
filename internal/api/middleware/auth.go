package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const (
	ConnIDKey contextKey = "connID"
)

// SessionValidator resolves a session token to its connection id.
type SessionValidator interface {
	Validate(token string) (string, error)
}

// Session reads an optional session token from the "session" query
// parameter or a Bearer header. A missing or stale token is not an error;
// the request simply carries no connection id.
func Session(sessions SessionValidator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("session")
			if token == "" {
				if parts := strings.Split(r.Header.Get("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
					token = parts[1]
				}
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			connID, err := sessions.Validate(token)
			if err != nil {
				log.Debug("ignoring session token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ConnIDKey, connID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetConnID(ctx context.Context) (string, bool) {
	connID, ok := ctx.Value(ConnIDKey).(string)
	return connID, ok
}
