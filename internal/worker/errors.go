package worker

import "errors"

var ErrConsumerStopped = errors.New("consumer stopped")
