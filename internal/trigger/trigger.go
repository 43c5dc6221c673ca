// Package trigger turns successful writes under the trigger prefix into
// object-created events for the processing function.
package trigger

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"nullid/internal/broker"
	"nullid/internal/domain"
	"nullid/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type objectStore interface {
	Bucket() string
	Put(ctx context.Context, obj domain.Object, body io.Reader) error
	Get(ctx context.Context, key string) (domain.Object, io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]domain.Object, error)
}

// EventingStore decorates an object store: every successful Put under prefix
// publishes one ObjectCreated:Put event. A failed publish is logged and
// counted but does not fail the write.
type EventingStore struct {
	objectStore
	producer broker.Producer
	prefix   string
	metrics  *metrics.Metrics
	logger   *zlog.Zerolog
	now      func() time.Time
}

func NewEventingStore(store objectStore, producer broker.Producer, prefix string, m *metrics.Metrics, logger *zlog.Zerolog) *EventingStore {
	return &EventingStore{
		objectStore: store,
		producer:    producer,
		prefix:      prefix,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *EventingStore) Put(ctx context.Context, obj domain.Object, body io.Reader) error {
	if err := s.objectStore.Put(ctx, obj, body); err != nil {
		return err
	}
	if !strings.HasPrefix(obj.Key, s.prefix) {
		return nil
	}

	err := s.Publish(ctx, obj)
	s.metrics.IncTrigger(err)
	if err != nil {
		s.logger.Error().Err(err).Str("key", obj.Key).Msg("Failed to publish object-created event")
	}
	return nil
}

// Publish sends the event for obj regardless of its prefix.
func (s *EventingStore) Publish(ctx context.Context, obj domain.Object) error {
	event := NewEvent(s.Bucket(), obj, s.now())
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := s.producer.Publish(ctx, []byte(obj.Key), payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	s.logger.Info().
		Str("event_id", event.Records[0].EventID).
		Str("key", obj.Key).
		Str("handler", domain.HandlerUpload).
		Msg("Object-created event published")
	return nil
}

func NewEvent(bucket string, obj domain.Object, at time.Time) domain.StorageEvent {
	return domain.StorageEvent{
		Records: []domain.EventRecord{{
			EventID:     uuid.New().String(),
			EventName:   domain.EventObjectCreatedPut,
			EventSource: domain.EventSourceStorage,
			EventTime:   at.UTC(),
			S3: domain.S3Entity{
				Bucket: domain.S3Bucket{Name: bucket},
				Object: domain.S3Object{
					Key:         domain.EncodeEventKey(obj.Key),
					Size:        obj.Size,
					ContentType: obj.ContentType,
					ETag:        obj.ETag,
				},
			},
		}},
	}
}
