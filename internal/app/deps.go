package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	nullidaws "nullid/internal/aws"
	"nullid/internal/config"
	"nullid/internal/domain"
	"nullid/internal/function"
	"nullid/internal/metrics"
	"nullid/internal/notify"
	"nullid/internal/policy"
	minio_repo "nullid/internal/repository/object/cloud/minio"
	s3_repo "nullid/internal/repository/object/cloud/s3"
	"nullid/internal/repository/object/memory"
	"nullid/internal/usecase/anonymizer"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"
)

// ObjectStore is what the server and the worker need from a storage backend.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, obj domain.Object, body io.Reader) error
	Get(ctx context.Context, key string) (domain.Object, io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]domain.Object, error)
}

func NewObjectStore(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		logger.Warn().Str("bucket", cfg.Storage.Bucket).Msg("Using in-memory object storage, data is lost on exit")
		return memory.NewStore(cfg.Storage.Bucket), nil
	case "s3":
		awsCfg, err := nullidaws.LoadConfig(ctx, cfg.Storage.Region)
		if err != nil {
			return nil, err
		}
		return s3_repo.NewS3Repository(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, logger), nil
	default:
		repo, err := minio_repo.NewMinIORepository(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create file repository: %w", err)
		}
		if err := repo.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket: %w", err)
		}
		return repo, nil
	}
}

// LoadTable reads the access table from the policy file, or returns the
// built-in table when none is configured.
func LoadTable(cfg *config.Config) (*policy.Table, error) {
	if cfg.Policy.File == "" {
		return policy.DefaultTable(), nil
	}
	table, err := policy.LoadFile(cfg.Policy.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return table, nil
}

func NewAuthorizer(ctx context.Context, cfg *config.Config, table *policy.Table) (policy.Authorizer, error) {
	if cfg.Policy.Engine == "rego" {
		return policy.NewRegoAuthorizer(ctx, table)
	}
	return table, nil
}

func NewMetrics() (*metrics.Metrics, error) {
	return metrics.New(metrics.DefaultNamespace, prometheus.DefaultRegisterer)
}

func NewNotifier(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (*notify.SNSNotifier, error) {
	if cfg.Function.ErrorTopicARN == "" {
		return notify.NewSNSNotifier(nil, "", logger), nil
	}
	awsCfg, err := nullidaws.LoadConfig(ctx, cfg.Storage.Region)
	if err != nil {
		return nil, err
	}
	return notify.NewSNSNotifier(sns.NewFromConfig(awsCfg), cfg.Function.ErrorTopicARN, logger), nil
}

func NewFunction(ctx context.Context, cfg *config.Config, store ObjectStore, authorizer policy.Authorizer, m *metrics.Metrics, logger *zlog.Zerolog) (*function.Handler, error) {
	notifier, err := NewNotifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := function.Options{
		TriggerPrefix: cfg.Function.TriggerPrefix,
		OutputPrefix:  cfg.Function.OutputPrefix,
		Timeout:       cfg.Function.Timeout,
	}
	return function.NewHandler(store, authorizer, anonymizer.New(anonymizer.NewFaker(0)), notifier, opts, m, logger), nil
}

// SetLogLevel applies LOG_LEVEL to the global logger.
func SetLogLevel(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
