package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	"nullid/internal/domain"
	"nullid/internal/repository/object"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type fakeS3 struct {
	objects map[string][]byte
	meta    map[string]map[string]string
	types   map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: make(map[string][]byte),
		meta:    make(map[string]map[string]string),
		types:   make(map[string]string),
	}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.meta[key] = in.Metadata
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	data, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(f.types[key]),
		Metadata:      f.meta[key],
	}, nil
}

func (f *fakeS3) HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key, data := range f.objects {
		if len(key) >= len(aws.ToString(in.Prefix)) && key[:len(aws.ToString(in.Prefix))] == aws.ToString(in.Prefix) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key), Size: aws.Int64(int64(len(data)))})
		}
	}
	return out, nil
}

func newRepo(t *testing.T) (*FileRepository, *fakeS3) {
	t.Helper()
	zlog.Init()
	fake := newFakeS3()
	return NewS3Repository(fake, "bucket", &zlog.Logger), fake
}

func TestPutAndGet(t *testing.T) {
	repo, fake := newRepo(t)
	ctx := context.Background()

	body := []byte("name,email\nann,ann@example.com\n")
	err := repo.Put(ctx, domain.Object{Key: "uploads/a.csv", Size: int64(len(body)), ContentType: "text/csv", Owner: "u1"}, bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "u1", fake.meta["uploads/a.csv"]["owner"])

	obj, rc, err := repo.Get(ctx, "uploads/a.csv")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, body, got)
	assert.Equal(t, "text/csv", obj.ContentType)
	assert.Equal(t, "u1", obj.Owner)
}

func TestGetMissingObject(t *testing.T) {
	repo, _ := newRepo(t)
	_, _, err := repo.Get(context.Background(), "uploads/none.csv")
	assert.ErrorIs(t, err, object.ErrObjectNotFound)
}

func TestPutFailureIsStorageError(t *testing.T) {
	repo, fake := newRepo(t)
	fake.putErr = assert.AnError
	err := repo.Put(context.Background(), domain.Object{Key: "uploads/a.csv"}, bytes.NewReader(nil))
	assert.ErrorIs(t, err, object.ErrStorageError)
}

func TestList(t *testing.T) {
	repo, fake := newRepo(t)
	fake.objects["anonymized/a_anonymized.csv"] = []byte("x")
	fake.objects["uploads/a.csv"] = []byte("xy")

	objects, err := repo.List(context.Background(), "anonymized/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "anonymized/a_anonymized.csv", objects[0].Key)
	assert.Equal(t, int64(1), objects[0].Size)
}
