package protocol

import "errors"

// Validation errors surfaced by the encoding layer and the mode catalog.
// All of them are detected before any frame reaches the transport.
var (
	ErrInvalidColor     = errors.New("invalid color")
	ErrTooManyColors    = errors.New("too many colors")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrUnknownMode      = errors.New("unknown mode")
)
