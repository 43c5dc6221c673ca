package domain

import (
	"errors"
	"path"
	"strings"
	"time"
)

const (
	PrefixUploads    = "uploads/"
	PrefixAnonymized = "anonymized/"
	PrefixLogs       = "logs/"
)

const (
	DefaultMaxUploadSize = 32 << 20
	DefaultContentType   = "application/octet-stream"
	AnonymizedSuffix     = "_anonymized"
	MetadataOwner        = "owner"
)

var (
	ErrEmptyFileName   = errors.New("file name is empty")
	ErrInvalidFileName = errors.New("file name must be a single path segment")
	ErrInvalidKey      = errors.New("invalid object key")
)

type Object struct {
	Key          string
	Size         int64
	ContentType  string
	Owner        string
	ETag         string
	LastModified time.Time
}

// Name returns the last segment of the object key.
func (o Object) Name() string {
	return path.Base(o.Key)
}

// UploadKey builds the destination key of an uploaded file. The name must be a
// single segment so the key always sits directly under the uploads prefix.
func UploadKey(fileName string) (string, error) {
	if err := ValidateFileName(fileName); err != nil {
		return "", err
	}
	return PrefixUploads + fileName, nil
}

func ValidateFileName(fileName string) error {
	if fileName == "" {
		return ErrEmptyFileName
	}
	if fileName == "." || fileName == ".." {
		return ErrInvalidFileName
	}
	if strings.ContainsAny(fileName, "/\\\x00") {
		return ErrInvalidFileName
	}
	return nil
}

// ValidateKey rejects keys that are empty, absolute, contain empty or dot
// segments, or carry control characters.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "//") {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, "\\\x00") {
		return ErrInvalidKey
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "." || segment == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

// AnonymizedKey maps a source key to its output key under outputPrefix:
// uploads/report.csv -> anonymized/report_anonymized.csv.
func AnonymizedKey(outputPrefix, sourceKey string) string {
	base := path.Base(sourceKey)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return outputPrefix + stem + AnonymizedSuffix + strings.ToLower(ext)
}
