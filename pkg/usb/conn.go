package usb

import (
	"fmt"
	"log/slog"
	"sync"
)

// Conn is a connection to at most one USB device. It is either unopened or
// opened to exactly one device; all transfer calls borrow the handle
// exclusively for the duration of the call, so concurrent callers are
// serialized internally.
//
// Transfers never retry: each call either fully succeeds or reports a
// specific failure, and a failed transfer leaves the connection opened so the
// caller can retry or tear down.
type Conn struct {
	backend Backend

	mu  sync.Mutex
	dev Device

	vendorID  uint16
	productID uint16
}

// New returns an unopened connection backed by the host's USB stack. It fails
// with ErrAllocation only if the USB context cannot be allocated.
func New() (*Conn, error) {
	backend, err := newGousbBackend()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	return NewWithBackend(backend), nil
}

// NewWithBackend returns an unopened connection using the given backend.
func NewWithBackend(backend Backend) *Conn {
	return &Conn{backend: backend}
}

// Connect finds and opens the single device matching both identifiers,
// claiming the interface holding its bulk endpoints. Calling Connect on an
// opened connection fails with ErrAlreadyConnected and leaves the existing
// handle untouched.
func (c *Conn) Connect(vendorID, productID uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev != nil {
		return ErrAlreadyConnected
	}

	dev, err := c.backend.Open(vendorID, productID)
	if err != nil {
		return err
	}
	c.dev = dev
	c.vendorID = vendorID
	c.productID = productID
	slog.Debug("USB device opened", "vid", fmt.Sprintf("%04x", vendorID), "pid", fmt.Sprintf("%04x", productID))
	return nil
}

// BulkOut writes all of data to the given out endpoint as one transfer. The
// endpoint address must have its direction bit (0x80) clear. A partial write
// is reported as a transport failure; the caller need not know how many bytes
// reached the device.
func (c *Conn) BulkOut(ep uint8, data []byte) error {
	if ep&0x80 != 0 {
		return fmt.Errorf("%w: endpoint 0x%02x is not an out endpoint", ErrInvalidArgument, ep)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev == nil {
		return fmt.Errorf("%w: connection not opened", ErrInvalidArgument)
	}

	n, err := c.dev.BulkOut(ep, data)
	if err != nil {
		return transportErr("bulk out", err)
	}
	if n != len(data) {
		return transportErr("bulk out", fmt.Errorf("short write: %d of %d bytes", n, len(data)))
	}
	slog.Debug("Bulk OUT", "ep", fmt.Sprintf("%02x", ep), "len", len(data))
	return nil
}

// BulkIn reads up to len(buf) bytes from the given in endpoint as one
// transfer. The endpoint address must have its direction bit (0x80) set.
func (c *Conn) BulkIn(ep uint8, buf []byte) (int, error) {
	if ep&0x80 == 0 {
		return 0, fmt.Errorf("%w: endpoint 0x%02x is not an in endpoint", ErrInvalidArgument, ep)
	}
	if len(buf) == 0 {
		return 0, fmt.Errorf("%w: empty read buffer", ErrInvalidArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev == nil {
		return 0, fmt.Errorf("%w: connection not opened", ErrInvalidArgument)
	}

	n, err := c.dev.BulkIn(ep, buf)
	if err != nil {
		return 0, transportErr("bulk in", err)
	}
	slog.Debug("Bulk IN", "ep", fmt.Sprintf("%02x", ep), "len", n)
	return n, nil
}

// Close releases the device handle and the backend, returning the connection
// to the unopened state. It is idempotent and never fails: release errors are
// logged and suppressed so the handle is always considered released. A later
// Connect reopens through the backend.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev != nil {
		if err := c.dev.Close(); err != nil {
			slog.Debug("USB device release failed", "err", err)
		}
		c.dev = nil
	}
	if err := c.backend.Close(); err != nil {
		slog.Debug("USB backend release failed", "err", err)
	}
	return nil
}
