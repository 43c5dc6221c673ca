package object

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"nullid/internal/contenttype"
	"nullid/internal/domain"
	"nullid/internal/http-server/handler/object/dto"
	"nullid/internal/http-server/middleware"
	"nullid/internal/http-server/response"
	object_uc "nullid/internal/usecase/object"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory   = 32 << 20
	routePrefix = "/api/objects/"
	sniffLen    = 512
)

type ObjectHandler struct {
	usecase  objectUsecase
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewObjectHandler(usecase objectUsecase, logger *zlog.Zerolog) *ObjectHandler {
	return &ObjectHandler{
		usecase:  usecase,
		validate: validator.New(),
		logger:   logger,
	}
}

// PutObject stores the raw request body under the key in the path.
func (h *ObjectHandler) PutObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := strings.TrimPrefix(r.URL.Path, routePrefix)
	principal := middleware.Principal(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.usecase.MaxSize())

	body := bufio.NewReaderSize(r.Body, sniffLen)
	head, _ := body.Peek(sniffLen)
	contentType := contenttype.Detect(key, r.Header.Get("Content-Type"), head)

	obj, err := h.usecase.Put(ctx, principal, key, contentType, r.ContentLength, body)
	if err != nil {
		h.handleError(w, err, key)
		return
	}

	h.respondJSON(w, http.StatusCreated, dto.FromObject(obj))
}

func (h *ObjectHandler) GetObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := strings.TrimPrefix(r.URL.Path, routePrefix)

	obj, reader, err := h.usecase.Get(ctx, middleware.Principal(ctx), key)
	if err != nil {
		h.handleError(w, err, key)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if obj.ETag != "" {
		w.Header().Set("ETag", strconv.Quote(obj.ETag))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", obj.Name()))

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to stream object")
	}
}

func (h *ObjectHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := dto.ListRequest{Prefix: r.URL.Query().Get("prefix")}

	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Query parameter prefix is required and must end with /", nil)
		return
	}

	objects, err := h.usecase.List(ctx, middleware.Principal(ctx), req.Prefix)
	if err != nil {
		h.handleError(w, err, req.Prefix)
		return
	}

	resp := dto.ListResponse{Prefix: req.Prefix, Objects: make([]dto.ObjectResponse, 0, len(objects))}
	for _, o := range objects {
		resp.Objects = append(resp.Objects, dto.FromObject(o))
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// UploadFile accepts a multipart form with a single "file" field and stores
// it under uploads/<file name>.
func (h *ObjectHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.usecase.MaxSize()+maxMemory)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
			return
		}
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn().Err(err).Msg("File not found in request")
		h.respondError(w, http.StatusBadRequest, domain.MsgNoFileSelected, nil)
		return
	}
	defer file.Close()

	body := bufio.NewReaderSize(file, sniffLen)
	head, _ := body.Peek(sniffLen)
	contentType := contenttype.Detect(header.Filename, header.Header.Get("Content-Type"), head)

	obj, err := h.usecase.Upload(ctx, middleware.Principal(ctx), header.Filename, contentType, header.Size, body)
	if err != nil {
		h.handleError(w, err, header.Filename)
		return
	}

	h.logger.Info().
		Str("key", obj.Key).
		Str("owner", obj.Owner).
		Int64("size", obj.Size).
		Msg("File uploaded successfully")

	h.respondJSON(w, http.StatusCreated, dto.UploadResponse{
		ObjectResponse: dto.FromObject(obj),
		Message:        domain.UploadedMessage(header.Filename),
	})
}

func (h *ObjectHandler) handleError(w http.ResponseWriter, err error, key string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, object_uc.ErrInvalidKey), errors.Is(err, domain.ErrInvalidKey):
		h.respondError(w, http.StatusBadRequest, "Invalid object key", err)
	case errors.Is(err, object_uc.ErrUnsupportedFormat):
		h.respondError(w, http.StatusBadRequest, "Unsupported file format", err)
	case errors.Is(err, object_uc.ErrAccessDenied):
		h.respondError(w, http.StatusForbidden, "Access denied", nil)
	case errors.Is(err, object_uc.ErrObjectNotFound):
		h.logger.Info().Str("key", key).Msg("Object not found")
		h.respondError(w, http.StatusNotFound, "Object not found", nil)
	case errors.Is(err, object_uc.ErrFileTooLarge), errors.As(err, &tooLarge):
		h.logger.Warn().Str("key", key).Msg("File too large")
		h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
	default:
		h.logger.Error().Err(err).Str("key", key).Msg("Object request failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to process request", nil)
	}
}

func (h *ObjectHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	if err := response.JSON(w, status, data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *ObjectHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err := response.Error(w, status, message, err); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode error response")
	}
}
