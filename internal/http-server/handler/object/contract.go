package object

import (
	"context"
	"io"

	"nullid/internal/domain"
)

type objectUsecase interface {
	Upload(ctx context.Context, principal domain.Principal, fileName, contentType string, size int64, body io.Reader) (domain.Object, error)
	Put(ctx context.Context, principal domain.Principal, key, contentType string, size int64, body io.Reader) (domain.Object, error)
	Get(ctx context.Context, principal domain.Principal, key string) (domain.Object, io.ReadCloser, error)
	List(ctx context.Context, principal domain.Principal, prefix string) ([]domain.Object, error)
	MaxSize() int64
}
