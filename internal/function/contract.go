package function

import (
	"context"
	"io"

	"nullid/internal/domain"
	"nullid/internal/usecase/anonymizer"
)

type objectStore interface {
	Bucket() string
	Put(ctx context.Context, obj domain.Object, body io.Reader) error
	Get(ctx context.Context, key string) (domain.Object, io.ReadCloser, error)
}

type documentAnonymizer interface {
	Document(format anonymizer.Format, data []byte) ([]byte, anonymizer.Stats, error)
}

type notifier interface {
	Notify(ctx context.Context, subject, message string) error
}
