package protocol

import "errors"

var (
	// ErrTimeout means a byte run did not fully arrive within the receive
	// window, or the peer went away before sending it.
	ErrTimeout = errors.New("protocol: receive timeout")

	// ErrMalformed means a field could not be parsed or is out of range.
	ErrMalformed = errors.New("protocol: malformed field")

	// ErrFieldOverflow means a value does not fit its fixed field width.
	ErrFieldOverflow = errors.New("protocol: value does not fit field width")
)
