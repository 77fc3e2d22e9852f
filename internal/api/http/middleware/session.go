package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/authctx"
	"github.com/shestoi/railbook/internal/iam"
	platformobservability "github.com/shestoi/railbook/platform/observability"
)

// SessionHeader carries the session id issued by POST /auth/login.
const SessionHeader = "x-session-id"

// SessionValidator resolves a session id to the caller.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string) (authctx.Identity, error)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func reject(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Code: code, Message: message})
}

// WithSession reads x-session-id, resolves it through validator and stores both the session id
// and the caller identity in the request context. A missing or unknown session gets 401.
func WithSession(validator SessionValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := r.Header.Get(SessionHeader)
			if sid == "" {
				reject(w, http.StatusUnauthorized, "unauthorized", "session_id is required")
				return
			}

			identity, err := validator.ValidateSession(r.Context(), sid)
			if err != nil {
				if errors.Is(err, iam.ErrSessionNotFoundOrExpired) {
					reject(w, http.StatusUnauthorized, "unauthorized", "session not found or expired")
					return
				}
				platformobservability.LoggerFromContext(r.Context(), logger).Error("failed to validate session", zap.Error(err))
				reject(w, http.StatusInternalServerError, "internal", "internal server error")
				return
			}

			ctx := authctx.WithSessionID(r.Context(), sid)
			ctx = authctx.WithIdentity(ctx, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after WithSession. Non-admin callers get 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authctx.IdentityFromContext(r.Context())
		if !ok {
			reject(w, http.StatusUnauthorized, "unauthorized", "session_id is required")
			return
		}
		if !identity.IsAdmin {
			reject(w, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
