// Package memory is an in-process object store used for local runs and tests.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"nullid/internal/domain"
	"nullid/internal/repository/object"
)

type entry struct {
	obj  domain.Object
	data []byte
}

type Store struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]entry
	now     func() time.Time
}

func NewStore(bucket string) *Store {
	return &Store{
		bucket:  bucket,
		objects: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *Store) Bucket() string {
	return s.bucket
}

func (s *Store) Put(ctx context.Context, obj domain.Object, body io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("%w: failed to read body: %v", object.ErrStorageError, err)
	}

	sum := md5.Sum(data)
	obj.Size = int64(len(data))
	obj.ETag = hex.EncodeToString(sum[:])
	obj.LastModified = s.now()
	if obj.ContentType == "" {
		obj.ContentType = domain.DefaultContentType
	}

	s.mu.Lock()
	s.objects[obj.Key] = entry{obj: obj, data: data}
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (domain.Object, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return domain.Object{}, nil, err
	}
	s.mu.RLock()
	e, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return domain.Object{}, nil, fmt.Errorf("%w: %s", object.ErrObjectNotFound, key)
	}
	return e.obj, io.NopCloser(bytes.NewReader(e.data)), nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]domain.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var objects []domain.Object
	for key, e := range s.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, e.obj)
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Bytes returns a copy of the stored content of key.
func (s *Store) Bytes(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), e.data...), true
}
