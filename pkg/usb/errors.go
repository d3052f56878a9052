package usb

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocation means the underlying USB context could not be allocated.
	ErrAllocation = errors.New("USB context allocation failed")
	// ErrAlreadyConnected means Connect was called on an opened connection.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrInvalidArgument means a caller error: wrong endpoint direction bit,
	// an empty read buffer, or a transfer on an unopened connection.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotPresent means no single device matched the requested identity.
	ErrNotPresent = errors.New("no matching device present")
)

// TransportError is any failure reported by the USB stack itself: device
// unplugged, stall, timeout, permission denied. It is never produced for
// caller errors, and layers above never reinterpret it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportErr(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
