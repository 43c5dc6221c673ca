package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"nullid/internal/domain"
	"nullid/internal/http-server/response"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	principalKey
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		zlog.Logger.Info().
			Str("request_id", RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				zlog.Logger.Error().
					Str("request_id", RequestID(r.Context())).
					Interface("error", err).
					Msg("Panic recovered")

				_ = response.Error(w, http.StatusInternalServerError, "Internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware keeps an incoming X-Request-ID or assigns a new one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type tokenParser interface {
	Parse(token string) (domain.Principal, error)
}

// Auth resolves the bearer token into a principal. Requests without a token
// continue as guest; a token that fails verification is rejected with 401.
func Auth(tokens tokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := domain.Guest()

			if header := r.Header.Get("Authorization"); header != "" {
				token, ok := strings.CutPrefix(header, "Bearer ")
				if !ok || token == "" {
					_ = response.Error(w, http.StatusUnauthorized, "Authorization header must be a bearer token", nil)
					return
				}
				p, err := tokens.Parse(token)
				if err != nil {
					zlog.Logger.Warn().Err(err).Str("request_id", RequestID(r.Context())).Msg("Rejected token")
					_ = response.Error(w, http.StatusUnauthorized, "Invalid or expired token", nil)
					return
				}
				principal = p
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAuthenticated rejects guests with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Principal(r.Context()).Class == domain.PrincipalGuest {
			_ = response.Error(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Principal returns the caller, or guest when none was resolved.
func Principal(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(principalKey).(domain.Principal); ok {
		return p
	}
	return domain.Guest()
}
