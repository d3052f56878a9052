// Package usb implements the host side of the acceleratorinator's USB
// session: locating the device by vendor/product identity, claiming the
// interface carrying its bulk endpoint pair, and moving data over those
// endpoints with a stable error taxonomy on top of the underlying stack.
package usb

// Device is one opened, claimed USB device. Implementations are expected to
// perform a single wire-level transfer per call and to leave retry policy to
// the caller.
type Device interface {
	// BulkOut writes data to the given out endpoint address and returns the
	// number of bytes the transport accepted.
	BulkOut(ep uint8, data []byte) (int, error)

	// BulkIn reads up to len(buf) bytes from the given in endpoint address
	// into buf.
	BulkIn(ep uint8, buf []byte) (int, error)

	// Close releases the claimed interface and the device handle. No other
	// methods may be called afterwards.
	Close() error
}

// Backend locates and opens devices. The default backend is gousb; tests and
// alternative USB stacks provide their own.
type Backend interface {
	// Open finds the single device matching both identifiers and claims the
	// interface holding its bulk endpoints. Zero matches, or more than one,
	// fail with ErrNotPresent.
	Open(vendorID, productID uint16) (Device, error)

	// Close releases any resources held by the backend itself.
	Close() error
}
