// Package function is the processing function bound to object-created events:
// it reads each uploaded object, anonymizes it and writes the result under the
// output prefix.
package function

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"nullid/internal/domain"
	"nullid/internal/metrics"
	"nullid/internal/notify"
	"nullid/internal/policy"
	"nullid/internal/usecase/anonymizer"

	"github.com/goccy/go-json"
	"github.com/wb-go/wbf/zlog"
)

// CompletedBody is the JSON-encoded body returned on success.
const CompletedBody = `"Processing complete."`

type Options struct {
	// TriggerPrefix bounds the keys the function processes. Records outside
	// it are skipped, so outputs never feed back into the function.
	TriggerPrefix string
	OutputPrefix  string
	Timeout       time.Duration
}

type Handler struct {
	store      objectStore
	authorizer policy.Authorizer
	anonymizer documentAnonymizer
	notifier   notifier
	principal  domain.Principal
	opts       Options
	metrics    *metrics.Metrics
	logger     *zlog.Zerolog
}

func NewHandler(
	store objectStore,
	authorizer policy.Authorizer,
	anon documentAnonymizer,
	n notifier,
	opts Options,
	m *metrics.Metrics,
	logger *zlog.Zerolog,
) *Handler {
	if opts.TriggerPrefix == "" {
		opts.TriggerPrefix = domain.PrefixUploads
	}
	if opts.OutputPrefix == "" {
		opts.OutputPrefix = domain.PrefixAnonymized
	}
	return &Handler{
		store:      store,
		authorizer: authorizer,
		anonymizer: anon,
		notifier:   n,
		principal:  domain.Principal{Subject: domain.HandlerUpload, Class: domain.PrincipalFunction},
		opts:       opts,
		metrics:    m,
		logger:     logger,
	}
}

// DecodeEvent parses a storage notification document.
func DecodeEvent(payload []byte) (domain.StorageEvent, error) {
	var event domain.StorageEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.StorageEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return event, nil
}

// Handle processes every record of the event in order and stops at the first
// failure. The failure is reported to the error topic and returned so the
// event is delivered again.
func (h *Handler) Handle(ctx context.Context, event domain.StorageEvent) (domain.FunctionResponse, error) {
	start := time.Now()
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	h.logger.Info().Int("records", len(event.Records)).Msg("Received event")

	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.metrics.ObserveInvocation(time.Since(start), err)
			h.reportFailure(ctx, record, err)
			return domain.FunctionResponse{}, err
		}
	}

	h.metrics.ObserveInvocation(time.Since(start), nil)
	return domain.FunctionResponse{StatusCode: 200, Body: CompletedBody}, nil
}

func (h *Handler) processRecord(ctx context.Context, record domain.EventRecord) error {
	bucket := record.S3.Bucket.Name
	if bucket != h.store.Bucket() {
		return fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}

	key, err := domain.DecodeEventKey(record.S3.Object.Key)
	if err != nil {
		return fmt.Errorf("failed to decode object key: %w", err)
	}
	if err := domain.ValidateKey(key); err != nil {
		return err
	}
	if !strings.HasPrefix(key, h.opts.TriggerPrefix) {
		h.logger.Warn().Str("key", key).Str("trigger_prefix", h.opts.TriggerPrefix).Msg("Object is outside the trigger prefix, skipping")
		return nil
	}

	format, ok := anonymizer.FormatFor(key)
	if !ok {
		h.logger.Info().Str("key", key).Msg("Unsupported file format, skipping")
		return nil
	}

	outputKey := domain.AnonymizedKey(h.opts.OutputPrefix, key)
	if err := h.authorizer.Authorize(ctx, h.principal, domain.OpRead, key); err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := h.authorizer.Authorize(ctx, h.principal, domain.OpWrite, outputKey); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputKey, err)
	}

	obj, reader, err := h.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get object: %w", err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}

	h.logger.Info().
		Str("key", key).
		Str("content_type", obj.ContentType).
		Int("size", len(data)).
		Msg("Processing file")

	out, stats, err := h.anonymizer.Document(format, data)
	if err != nil {
		return fmt.Errorf("failed to anonymize %s: %w", key, err)
	}
	for kind, n := range stats {
		h.metrics.AddReplacements(string(kind), n)
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = domain.DefaultContentType
	}
	result := domain.Object{
		Key:         outputKey,
		Size:        int64(len(out)),
		ContentType: contentType,
		Owner:       obj.Owner,
	}
	if err := h.store.Put(ctx, result, bytes.NewReader(out)); err != nil {
		return fmt.Errorf("failed to put anonymized object: %w", err)
	}

	h.logger.Info().
		Str("key", key).
		Str("output_key", outputKey).
		Int("replacements", stats.Total()).
		Msg("Anonymized data uploaded")
	return nil
}

func (h *Handler) reportFailure(ctx context.Context, record domain.EventRecord, cause error) {
	key := record.S3.Object.Key
	if decoded, err := domain.DecodeEventKey(key); err == nil {
		key = decoded
	}
	message := notify.ErrorMessage(key, record.S3.Bucket.Name, cause)
	h.logger.Error().Err(cause).Str("key", key).Msg(message)

	err := h.notifier.Notify(context.WithoutCancel(ctx), notify.ErrorSubject, message)
	h.metrics.IncNotification(err)
	if err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to send error notification")
	}
}
