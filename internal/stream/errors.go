package stream

import "errors"

var (
	ErrClosed            = errors.New("stream: link closed")
	ErrNoKey             = errors.New("stream: encryption requested without an established key")
	ErrSequence          = errors.New("stream: packet sequence violation")
	ErrHandlerRegistered = errors.New("stream: handler already registered")
)
