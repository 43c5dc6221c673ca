package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"nullid/internal/domain"
	"nullid/internal/metrics"
	"nullid/internal/policy"
	repoObject "nullid/internal/repository/object"

	"github.com/wb-go/wbf/zlog"
)

type Options struct {
	MaxSize           int64
	AllowedExtensions []string
}

type ObjectUsecase struct {
	store      objectStore
	authorizer authorizer
	opts       Options
	metrics    *metrics.Metrics
	logger     *zlog.Zerolog
}

func NewObjectUsecase(store objectStore, authorizer authorizer, opts Options, m *metrics.Metrics, logger *zlog.Zerolog) *ObjectUsecase {
	if opts.MaxSize <= 0 {
		opts.MaxSize = domain.DefaultMaxUploadSize
	}
	return &ObjectUsecase{
		store:      store,
		authorizer: authorizer,
		opts:       opts,
		metrics:    m,
		logger:     logger,
	}
}

func (u *ObjectUsecase) MaxSize() int64 {
	return u.opts.MaxSize
}

// Upload stores a client file under uploads/<fileName>.
func (u *ObjectUsecase) Upload(ctx context.Context, principal domain.Principal, fileName, contentType string, size int64, body io.Reader) (domain.Object, error) {
	key, err := domain.UploadKey(fileName)
	if err != nil {
		return domain.Object{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return u.Put(ctx, principal, key, contentType, size, body)
}

// Put writes body under key on behalf of principal. A negative size means
// the length is unknown; the body is then buffered up to the size limit.
func (u *ObjectUsecase) Put(ctx context.Context, principal domain.Principal, key, contentType string, size int64, body io.Reader) (domain.Object, error) {
	if err := u.authorize(ctx, principal, domain.OpWrite, key); err != nil {
		return domain.Object{}, err
	}
	if strings.HasPrefix(key, domain.PrefixUploads) && !u.allowedExtension(key) {
		return domain.Object{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Ext(key))
	}
	if size > u.opts.MaxSize {
		return domain.Object{}, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, size)
	}
	if size < 0 {
		data, err := io.ReadAll(io.LimitReader(body, u.opts.MaxSize+1))
		if err != nil {
			return domain.Object{}, fmt.Errorf("failed to read body: %w", err)
		}
		if int64(len(data)) > u.opts.MaxSize {
			return domain.Object{}, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, u.opts.MaxSize)
		}
		size = int64(len(data))
		body = bytes.NewReader(data)
	}
	if contentType == "" {
		contentType = domain.DefaultContentType
	}

	obj := domain.Object{
		Key:         key,
		Size:        size,
		ContentType: contentType,
		Owner:       principal.Subject,
	}

	start := time.Now()
	err := u.store.Put(ctx, obj, body)
	u.metrics.ObserveStorage("put", time.Since(start), err)
	if err != nil {
		u.logger.Error().Err(err).Str("key", key).Msg("Failed to store object")
		return domain.Object{}, fmt.Errorf("failed to store object: %w", mapStoreError(err))
	}
	u.metrics.AddUploadedBytes(size)

	u.logger.Info().
		Str("key", key).
		Str("owner", principal.Subject).
		Int64("size", size).
		Str("content_type", contentType).
		Msg("Object stored")
	return obj, nil
}

func (u *ObjectUsecase) Get(ctx context.Context, principal domain.Principal, key string) (domain.Object, io.ReadCloser, error) {
	if err := u.authorize(ctx, principal, domain.OpRead, key); err != nil {
		return domain.Object{}, nil, err
	}

	start := time.Now()
	obj, reader, err := u.store.Get(ctx, key)
	u.metrics.ObserveStorage("get", time.Since(start), err)
	if err != nil {
		return domain.Object{}, nil, fmt.Errorf("failed to get object: %w", mapStoreError(err))
	}
	return obj, reader, nil
}

func (u *ObjectUsecase) List(ctx context.Context, principal domain.Principal, prefix string) ([]domain.Object, error) {
	if err := u.authorizer.AuthorizePrefix(ctx, principal, domain.OpRead, prefix); err != nil {
		u.metrics.IncAccessDenied(string(domain.OpRead))
		return nil, fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}

	start := time.Now()
	objects, err := u.store.List(ctx, prefix)
	u.metrics.ObserveStorage("list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", mapStoreError(err))
	}
	return objects, nil
}

func (u *ObjectUsecase) authorize(ctx context.Context, principal domain.Principal, op domain.Operation, key string) error {
	err := u.authorizer.Authorize(ctx, principal, op, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalidKey):
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case errors.Is(err, policy.ErrAccessDenied):
		u.metrics.IncAccessDenied(string(op))
		u.logger.Warn().
			Str("subject", principal.Subject).
			Str("class", string(principal.Class)).
			Str("operation", string(op)).
			Str("key", key).
			Msg("Access denied")
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	default:
		return fmt.Errorf("failed to evaluate access policy: %w", err)
	}
}

func (u *ObjectUsecase) allowedExtension(key string) bool {
	if len(u.opts.AllowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(key))
	for _, allowed := range u.opts.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repoObject.ErrObjectNotFound):
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStorageError, err)
	}
}
