package policy

import "errors"

var (
	ErrAccessDenied   = errors.New("access denied")
	ErrInvalidPattern = errors.New("invalid prefix pattern")
	ErrInvalidRule    = errors.New("invalid access rule")
)
