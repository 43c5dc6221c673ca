package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"nullid/internal/domain"
	"nullid/internal/repository/object"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore("bucket")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, domain.Object{Key: "uploads/a.json", ContentType: "application/json", Owner: "u1"}, strings.NewReader(`{"a":1}`)))

	obj, rc, err := s.Get(ctx, "uploads/a.json")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.Equal(t, int64(7), obj.Size)
	assert.Equal(t, "u1", obj.Owner)
	assert.NotEmpty(t, obj.ETag)
}

func TestStoreDefaultsContentType(t *testing.T) {
	s := NewStore("bucket")
	require.NoError(t, s.Put(context.Background(), domain.Object{Key: "logs/x"}, strings.NewReader("x")))

	obj, _, err := s.Get(context.Background(), "logs/x")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultContentType, obj.ContentType)
}

func TestStoreMissingKey(t *testing.T) {
	_, _, err := NewStore("bucket").Get(context.Background(), "uploads/none")
	assert.ErrorIs(t, err, object.ErrObjectNotFound)
}

func TestStoreListIsSortedAndPrefixed(t *testing.T) {
	s := NewStore("bucket")
	ctx := context.Background()
	for _, k := range []string{"uploads/b.csv", "anonymized/a_anonymized.csv", "uploads/a.csv"} {
		require.NoError(t, s.Put(ctx, domain.Object{Key: k}, strings.NewReader("x")))
	}

	objects, err := s.List(ctx, "uploads/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "uploads/a.csv", objects[0].Key)
	assert.Equal(t, "uploads/b.csv", objects[1].Key)
}
