package object

import (
	"context"
	"io"

	"nullid/internal/domain"
)

type objectStore interface {
	Put(ctx context.Context, obj domain.Object, body io.Reader) error
	Get(ctx context.Context, key string) (domain.Object, io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]domain.Object, error)
}

type authorizer interface {
	Authorize(ctx context.Context, principal domain.Principal, op domain.Operation, key string) error
	AuthorizePrefix(ctx context.Context, principal domain.Principal, op domain.Operation, prefix string) error
}
