package object

import "errors"

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrStorageError   = errors.New("storage error")
)
