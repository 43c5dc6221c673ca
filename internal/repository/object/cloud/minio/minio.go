package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"nullid/internal/config"
	"nullid/internal/domain"
	"nullid/internal/repository/object"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

type FileRepository struct {
	client *minio.Client
	bucket string
	logger *zlog.Zerolog

	bucketOnce sync.Once
	bucketErr  error
}

func NewMinIORepository(cfg *config.Config, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
		Region: cfg.Storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &FileRepository{
		client: client,
		bucket: cfg.Storage.Bucket,
		logger: logger,
	}, nil
}

func (r *FileRepository) Bucket() string {
	return r.bucket
}

// EnsureBucket creates the bucket on first use.
func (r *FileRepository) EnsureBucket(ctx context.Context) error {
	r.bucketOnce.Do(func() {
		exists, err := r.client.BucketExists(ctx, r.bucket)
		if err != nil {
			r.bucketErr = fmt.Errorf("failed to check bucket existence: %w", err)
			return
		}
		if exists {
			return
		}
		r.logger.Info().Str("bucket", r.bucket).Msg("Creating bucket")
		if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
			r.bucketErr = fmt.Errorf("failed to create bucket: %w", err)
		}
	})
	return r.bucketErr
}

func (r *FileRepository) Put(ctx context.Context, obj domain.Object, body io.Reader) error {
	if err := r.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("%w: %v", object.ErrStorageError, err)
	}

	opts := minio.PutObjectOptions{ContentType: obj.ContentType}
	if obj.Owner != "" {
		opts.UserMetadata = map[string]string{domain.MetadataOwner: obj.Owner}
	}

	info, err := r.client.PutObject(ctx, r.bucket, obj.Key, body, obj.Size, opts)
	if err != nil {
		r.logger.Error().Err(err).Str("bucket", r.bucket).Str("key", obj.Key).Msg("Failed to put object")
		return fmt.Errorf("%w: failed to put object: %v", object.ErrStorageError, err)
	}

	r.logger.Debug().Str("key", obj.Key).Int64("size", info.Size).Msg("Object stored")
	return nil
}

func (r *FileRepository) Get(ctx context.Context, key string) (domain.Object, io.ReadCloser, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return domain.Object{}, nil, r.mapError(err, key)
	}

	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return domain.Object{}, nil, r.mapError(err, key)
	}

	return toDomain(info), obj, nil
}

func (r *FileRepository) List(ctx context.Context, prefix string) ([]domain.Object, error) {
	var objects []domain.Object
	for info := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true, WithMetadata: true}) {
		if info.Err != nil {
			return nil, r.mapError(info.Err, prefix)
		}
		objects = append(objects, toDomain(info))
	}
	return objects, nil
}

func (r *FileRepository) mapError(err error, key string) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", object.ErrObjectNotFound, key)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", object.ErrStorageError, err)
}

func toDomain(info minio.ObjectInfo) domain.Object {
	return domain.Object{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		Owner:        object.MetadataValue(info.UserMetadata, domain.MetadataOwner),
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}
}
