package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	nullidaws "nullid/internal/aws"
	"nullid/internal/domain"
	"nullid/internal/repository/object"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/wb-go/wbf/zlog"
)

// FileRepository stores objects in an S3 bucket.
type FileRepository struct {
	client nullidaws.S3Client
	bucket string
	logger *zlog.Zerolog
}

func NewS3Repository(client nullidaws.S3Client, bucket string, logger *zlog.Zerolog) *FileRepository {
	return &FileRepository{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

func (r *FileRepository) Bucket() string {
	return r.bucket
}

func (r *FileRepository) Put(ctx context.Context, obj domain.Object, body io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(obj.Key),
		Body:        body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size >= 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if obj.Owner != "" {
		input.Metadata = map[string]string{domain.MetadataOwner: obj.Owner}
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		r.logger.Error().Err(err).Str("bucket", r.bucket).Str("key", obj.Key).Msg("Failed to put object")
		return fmt.Errorf("%w: failed to put object: %v", object.ErrStorageError, err)
	}
	return nil
}

func (r *FileRepository) Get(ctx context.Context, key string) (domain.Object, io.ReadCloser, error) {
	resp, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return domain.Object{}, nil, mapError(err, key)
	}

	obj := domain.Object{
		Key:          key,
		Size:         aws.ToInt64(resp.ContentLength),
		ContentType:  aws.ToString(resp.ContentType),
		Owner:        object.MetadataValue(resp.Metadata, domain.MetadataOwner),
		ETag:         aws.ToString(resp.ETag),
		LastModified: aws.ToTime(resp.LastModified),
	}
	return obj, resp.Body, nil
}

func (r *FileRepository) List(ctx context.Context, prefix string) ([]domain.Object, error) {
	var objects []domain.Object
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(err, prefix)
		}
		for _, o := range page.Contents {
			objects = append(objects, domain.Object{
				Key:          aws.ToString(o.Key),
				Size:         aws.ToInt64(o.Size),
				ETag:         aws.ToString(o.ETag),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
	}
	return objects, nil
}

func mapError(err error, key string) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %s", object.ErrObjectNotFound, key)
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", object.ErrObjectNotFound, key)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", object.ErrStorageError, err)
}
