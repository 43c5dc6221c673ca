// Package items serves the /items REST surface, which hands the request body
// to the processing function.
package items

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"nullid/internal/domain"
	"nullid/internal/function"
	"nullid/internal/http-server/middleware"
	"nullid/internal/http-server/response"

	"github.com/wb-go/wbf/zlog"
)

const maxBodySize = 1 << 20

type eventHandler interface {
	Handle(ctx context.Context, event domain.StorageEvent) (domain.FunctionResponse, error)
}

type ItemsHandler struct {
	function eventHandler
	logger   *zlog.Zerolog
}

func NewItemsHandler(fn eventHandler, logger *zlog.Zerolog) *ItemsHandler {
	return &ItemsHandler{
		function: fn,
		logger:   logger,
	}
}

// Invoke forwards the body to the function. A body that is not a storage
// event is invoked as an event with no records.
func (h *ItemsHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return
		}
		h.respondError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	var event domain.StorageEvent
	if len(bytes.TrimSpace(body)) > 0 {
		if decoded, err := function.DecodeEvent(body); err == nil {
			event = decoded
		} else {
			h.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Body is not a storage event")
		}
	}

	principal := middleware.Principal(ctx)
	h.logger.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("subject", principal.Subject).
		Int("records", len(event.Records)).
		Msg("Invoking function")

	resp, err := h.function.Handle(ctx, event)
	if err != nil {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Function invocation failed")
		h.respondError(w, http.StatusInternalServerError, "Function invocation failed", nil)
		return
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	if err := response.JSON(w, status, resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *ItemsHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err := response.Error(w, status, message, err); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode error response")
	}
}
