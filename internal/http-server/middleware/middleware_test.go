package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"nullid/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type fakeTokens struct {
	parseFunc func(token string) (domain.Principal, error)
}

func (f *fakeTokens) Parse(token string) (domain.Principal, error) {
	return f.parseFunc(token)
}

func principalEcho(got *domain.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = Principal(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth(t *testing.T) {
	zlog.Init()
	alice := domain.Principal{Subject: "alice", Class: domain.PrincipalAuthenticated}
	tokens := &fakeTokens{parseFunc: func(token string) (domain.Principal, error) {
		if token == "good" {
			return alice, nil
		}
		return domain.Principal{}, errors.New("bad signature")
	}}

	tests := []struct {
		name   string
		header string
		status int
		want   domain.Principal
	}{
		{name: "no header is guest", status: http.StatusNoContent, want: domain.Guest()},
		{name: "valid bearer", header: "Bearer good", status: http.StatusNoContent, want: alice},
		{name: "invalid token", header: "Bearer forged", status: http.StatusUnauthorized},
		{name: "not a bearer", header: "Basic dXNlcjpwYXNz", status: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Principal
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Auth(tokens)(principalEcho(&got)).ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRequireAuthenticated(t *testing.T) {
	var got domain.Principal
	h := RequireAuthenticated(principalEcho(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	alice := domain.Principal{Subject: "alice", Class: domain.PrincipalAuthenticated}
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req = req.WithContext(WithPrincipal(req.Context(), alice))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, alice, got)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "req-1", seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	zlog.Init()
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
