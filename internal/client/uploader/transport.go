package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nullid/internal/domain"
	"nullid/internal/http-server/response"

	"github.com/goccy/go-json"
)

var ErrRequestFailed = errors.New("request failed")

// HTTPTransport puts objects through the HTTP API with a bearer token.
type HTTPTransport struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPTransport(baseURL, token string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

func (t *HTTPTransport) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.baseURL+"/api/objects/"+escapeKey(key), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	req.Header.Set("Content-Type", contentType)
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}

	var apiErr response.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%w: %d %s", ErrRequestFailed, resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("%w: %d %s", ErrRequestFailed, resp.StatusCode, http.StatusText(resp.StatusCode))
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

type objectPutter interface {
	Put(ctx context.Context, principal domain.Principal, key, contentType string, size int64, body io.Reader) (domain.Object, error)
}

// StoreTransport writes directly through the object usecase as principal,
// with the same access policy as the HTTP API.
type StoreTransport struct {
	objects   objectPutter
	principal domain.Principal
}

func NewStoreTransport(objects objectPutter, principal domain.Principal) *StoreTransport {
	return &StoreTransport{
		objects:   objects,
		principal: principal,
	}
}

func (t *StoreTransport) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	_, err := t.objects.Put(ctx, t.principal, key, contentType, size, body)
	return err
}
