package object

import "errors"

var (
	ErrInvalidKey        = errors.New("invalid object key")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrAccessDenied      = errors.New("access denied")
	ErrObjectNotFound    = errors.New("object not found")
	ErrStorageError      = errors.New("storage error")
)
