package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wb-go/wbf/retry"
)

type Config struct {
	Env          string             `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	Server       ServerConfig       `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Worker       WorkerConfig       `yaml:"worker"`
	Function     FunctionConfig     `yaml:"function"`
	Notification NotificationConfig `yaml:"notification"`
	Auth         AuthConfig         `yaml:"auth"`
	Policy       PolicyConfig       `yaml:"policy"`
	Upload       UploadConfig       `yaml:"upload"`
	Retry        RetryConfig        `yaml:"retry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s" validate:"min=1s"`
	StaticDir       string        `yaml:"static_dir" env:"SERVER_STATIC_DIR" env-default:"static"`
	TemplatesDir    string        `yaml:"templates_dir" env:"SERVER_TEMPLATES_DIR" env-default:"templates"`
}

type StorageConfig struct {
	Backend   string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"minio" validate:"oneof=minio s3 memory"`
	Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET" env-default:"data-anonymization-bucket" validate:"required"`
	Region    string `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092" validate:"min=1"`
	EventsTopic string   `yaml:"events_topic" env:"KAFKA_EVENTS_TOPIC" env-default:"object-created" validate:"required"`
	GroupID     string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"upload-handler" validate:"required"`
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"4" validate:"min=1"`
}

// FunctionConfig describes the processing function. ErrorTopicARN, OutputPrefix
// and LogLevel are the function's environment.
type FunctionConfig struct {
	Name          string        `yaml:"name" env:"FUNCTION_NAME" env-default:"uploadHandler" validate:"required"`
	Runtime       string        `yaml:"runtime" env:"FUNCTION_RUNTIME" env-default:"provided.al2023"`
	MemoryMB      int           `yaml:"memory_mb" env:"FUNCTION_MEMORY_MB" env-default:"1024" validate:"min=128"`
	Timeout       time.Duration `yaml:"timeout" env:"FUNCTION_TIMEOUT" env-default:"60s" validate:"min=1s"`
	TriggerPrefix string        `yaml:"trigger_prefix" env:"FUNCTION_TRIGGER_PREFIX" env-default:"uploads/" validate:"required"`
	ErrorTopicARN string        `yaml:"error_topic_arn" env:"ERROR_TOPIC_ARN"`
	OutputPrefix  string        `yaml:"output_prefix" env:"OUTPUT_PREFIX" env-default:"anonymized/" validate:"required"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

type NotificationConfig struct {
	TopicName   string `yaml:"topic_name" env:"NOTIFICATION_TOPIC_NAME" env-default:"nullid-errors" validate:"required"`
	DisplayName string `yaml:"display_name" env:"NOTIFICATION_DISPLAY_NAME" env-default:"Lambda Error Notifications"`
	Email       string `yaml:"email" env:"NOTIFICATION_EMAIL" validate:"omitempty,email"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	Issuer    string        `yaml:"issuer" env:"AUTH_ISSUER" env-default:"nullid"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"1h"`
}

type PolicyConfig struct {
	File   string `yaml:"file" env:"POLICY_FILE"`
	Engine string `yaml:"engine" env:"POLICY_ENGINE" env-default:"table" validate:"oneof=table rego"`
}

type UploadConfig struct {
	MaxSize           int64    `yaml:"max_size" env:"UPLOAD_MAX_SIZE" env-default:"33554432" validate:"min=1"`
	AllowedExtensions []string `yaml:"allowed_extensions" env:"UPLOAD_ALLOWED_EXTENSIONS" env-separator:"," env-default:".json,.csv"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3" validate:"min=1"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"200ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

var ErrMissingJWTSecret = errors.New("auth.jwt_secret is required outside local env")

// MustLoad reads the YAML file named by CONFIG_PATH (if set) and applies
// environment overrides, then validates the result.
func MustLoad() (*Config, error) {
	return Load(os.Getenv("CONFIG_PATH"))
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Env != "local" && c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if !strings.HasSuffix(c.Function.OutputPrefix, "/") || !strings.HasSuffix(c.Function.TriggerPrefix, "/") {
		return fmt.Errorf("invalid config: function prefixes must end with /")
	}
	if c.Function.OutputPrefix == c.Function.TriggerPrefix {
		return fmt.Errorf("invalid config: output prefix must differ from trigger prefix")
	}
	return nil
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

// FunctionEnvironment is the environment handed to the processing function.
func (c *Config) FunctionEnvironment() map[string]string {
	return map[string]string{
		"ERROR_TOPIC_ARN": c.Function.ErrorTopicARN,
		"OUTPUT_PREFIX":   c.Function.OutputPrefix,
		"LOG_LEVEL":       c.Function.LogLevel,
	}
}
