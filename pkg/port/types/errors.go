package types

import "errors"

var (
	// ErrUnconnectedEndpoint is returned/logged when communicate() is
	// polled on an endpoint that is not connected: a scheduler bug
	// per spec.md §7.
	ErrUnconnectedEndpoint = errors.New("communicate called on an unconnected endpoint")

	// ErrQueueOverflow marks a write attempted on a full queue by a
	// caller that did not gate on tokens_available; spec.md §7 calls
	// this a fatal programming error.
	ErrQueueOverflow = errors.New("write attempted on a full port queue")

	// ErrMalformedFrame is returned when a wire frame cannot be
	// decoded. The endpoint drops the frame (spec.md §7).
	ErrMalformedFrame = errors.New("malformed wire frame")

	// ErrUnknownCommand is returned for a wire frame carrying a cmd
	// this protocol version does not recognize.
	ErrUnknownCommand = errors.New("unknown command in wire frame")
)
