package domain

import (
	"net/url"
	"strings"
	"time"
)

const (
	EventObjectCreatedPut = "ObjectCreated:Put"
	EventSourceStorage    = "nullid:storage"
	HandlerUpload         = "uploadHandler"
)

// StorageEvent mirrors the S3 bucket notification document so the processing
// function accepts the same payload whether it comes from the trigger, the
// REST surface or a real S3 notification.
type StorageEvent struct {
	Records []EventRecord `json:"Records"`
}

type EventRecord struct {
	EventID     string    `json:"eventID,omitempty"`
	EventName   string    `json:"eventName"`
	EventSource string    `json:"eventSource"`
	EventTime   time.Time `json:"eventTime"`
	S3          S3Entity  `json:"s3"`
}

type S3Entity struct {
	Bucket S3Bucket `json:"bucket"`
	Object S3Object `json:"object"`
}

type S3Bucket struct {
	Name string `json:"name"`
}

type S3Object struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
	ETag        string `json:"eTag,omitempty"`
}

// EncodeEventKey escapes a key the way S3 notifications do: query escaping
// with the path separators left intact.
func EncodeEventKey(key string) string {
	return strings.ReplaceAll(url.QueryEscape(key), "%2F", "/")
}

func DecodeEventKey(key string) (string, error) {
	return url.QueryUnescape(key)
}

// FunctionResponse is the value returned by the processing function.
type FunctionResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}
