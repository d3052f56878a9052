package accessory

import (
	"errors"
	"fmt"
)

// Accessory-reported failures, distinct from transport failures: the device
// received and answered the full payload but refused it.
var (
	// ErrUnknownAccessory is an accessory failure with no classifiable reason.
	ErrUnknownAccessory = errors.New("accessory reported an unclassified failure")
	// ErrUnsupportedCompression means the accessory rejected the payload's
	// encoding.
	ErrUnsupportedCompression = errors.New("accessory does not support the payload compression")
	// ErrParseFailure means the accessory could not parse the payload as a
	// well-formed image.
	ErrParseFailure = errors.New("accessory could not parse the payload")
)

// Status codes returned on the in endpoint after a complete payload.
const (
	statusOK                     uint8 = 0
	statusUnsupportedCompression uint8 = 1
	statusParseFailure           uint8 = 2
)

func statusErr(code uint8) error {
	switch code {
	case statusOK:
		return nil
	case statusUnsupportedCompression:
		return ErrUnsupportedCompression
	case statusParseFailure:
		return ErrParseFailure
	default:
		return fmt.Errorf("%w (status 0x%02x)", ErrUnknownAccessory, code)
	}
}
