package anonymizer

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidJSON       = errors.New("invalid JSON document")
	ErrInvalidCSV        = errors.New("invalid CSV document")
)
