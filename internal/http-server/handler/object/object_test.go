package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"nullid/internal/domain"
	"nullid/internal/http-server/response"
	object_uc "nullid/internal/usecase/object"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type fakeUsecase struct {
	getFunc func(key string) (domain.Object, io.ReadCloser, error)
}

func (f *fakeUsecase) Upload(context.Context, domain.Principal, string, string, int64, io.Reader) (domain.Object, error) {
	return domain.Object{}, errors.New("not used")
}

func (f *fakeUsecase) Put(context.Context, domain.Principal, string, string, int64, io.Reader) (domain.Object, error) {
	return domain.Object{}, errors.New("not used")
}

func (f *fakeUsecase) Get(_ context.Context, _ domain.Principal, key string) (domain.Object, io.ReadCloser, error) {
	return f.getFunc(key)
}

func (f *fakeUsecase) List(context.Context, domain.Principal, string) ([]domain.Object, error) {
	return nil, nil
}

func (f *fakeUsecase) MaxSize() int64 { return 1 << 20 }

func TestGetObjectErrorMapping(t *testing.T) {
	zlog.Init()

	tests := []struct {
		name    string
		err     error
		status  int
		details string
	}{
		{
			name:   "storage failure hides internals",
			err:    fmt.Errorf("%w: bucket data-anonymization-bucket unreachable", object_uc.ErrStorageError),
			status: http.StatusInternalServerError,
		},
		{
			name:   "unexpected error hides internals",
			err:    errors.New("dial tcp 10.0.0.7:9000: connection refused"),
			status: http.StatusInternalServerError,
		},
		{
			name:    "invalid key keeps details",
			err:     object_uc.ErrInvalidKey,
			status:  http.StatusBadRequest,
			details: object_uc.ErrInvalidKey.Error(),
		},
		{name: "denied", err: object_uc.ErrAccessDenied, status: http.StatusForbidden},
		{name: "missing", err: object_uc.ErrObjectNotFound, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUsecase{getFunc: func(string) (domain.Object, io.ReadCloser, error) {
				return domain.Object{}, nil, tt.err
			}}
			h := NewObjectHandler(uc, &zlog.Logger)

			rec := httptest.NewRecorder()
			h.GetObject(rec, httptest.NewRequest(http.MethodGet, "/api/objects/uploads/a.csv", nil))

			require.Equal(t, tt.status, rec.Code)
			var got response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.details, got.Details)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "bucket")
				assert.NotContains(t, rec.Body.String(), "10.0.0.7")
			}
		})
	}
}
