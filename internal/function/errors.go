package function

import "errors"

var (
	ErrInvalidEvent  = errors.New("invalid storage event")
	ErrUnknownBucket = errors.New("event targets an unknown bucket")
)
