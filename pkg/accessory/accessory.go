// Package accessory speaks the acceleratorinator's bulk-transfer protocol: a
// payload is streamed to the device as ordered fixed-size frames on the out
// endpoint, the device answers with a one-byte status on the in endpoint, and
// the processed payload can then be read back over the same in endpoint.
package accessory

import (
	"fmt"
	"log/slog"

	"github.com/cring-electronics/acceleratorinator/pkg/rle"
	"github.com/cring-electronics/acceleratorinator/pkg/usb"
)

// Device identity and endpoint addresses of the acceleratorinator. These are
// protocol constants, not negotiated.
const (
	VendorID  uint16 = 0xC0DE
	ProductID uint16 = 0xCAFE

	EndpointOut uint8 = 0x01
	EndpointIn  uint8 = 0x81
)

// DefaultChunkSize is the accessory's bulk endpoint max packet size.
const DefaultChunkSize = 64

// Transport is the subset of *usb.Conn the protocol needs.
type Transport interface {
	BulkOut(ep uint8, data []byte) error
	BulkIn(ep uint8, buf []byte) (int, error)
}

// Accessory sends image payloads to a connected acceleratorinator. It keeps
// no state between calls; every operation is independent and may be repeated
// over the same open connection.
type Accessory struct {
	t         Transport
	chunkSize int
}

// Option configures an Accessory.
type Option func(*Accessory)

// WithChunkSize overrides the per-frame chunk size. Sizes outside 1..512 are
// ignored.
func WithChunkSize(size int) Option {
	return func(a *Accessory) {
		if size > 0 && size <= 512 {
			a.chunkSize = size
		}
	}
}

// New wraps an open transport.
func New(t Transport, opts ...Option) *Accessory {
	a := &Accessory{t: t, chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dial connects conn to the acceleratorinator's well-known identity and wraps
// it. The caller keeps ownership of conn and is responsible for closing it.
func Dial(conn *usb.Conn, opts ...Option) (*Accessory, error) {
	if err := conn.Connect(VendorID, ProductID); err != nil {
		return nil, err
	}
	return New(conn, opts...), nil
}

// SendImage delivers payload to the accessory as ordered chunk-size frames on
// the out endpoint, then reads the accessory's status from the in endpoint.
// The accessory reassembles the frames into one logical message, so frames
// are never reordered, dropped, or duplicated; a short final frame ends the
// message, and a zero-length frame is sent instead when the payload length is
// an exact multiple of the chunk size.
//
// Accessory-reported failures map to ErrUnsupportedCompression,
// ErrParseFailure or ErrUnknownAccessory. Transport failures abort the stream
// immediately and are surfaced unchanged.
func (a *Accessory) SendImage(payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", usb.ErrInvalidArgument)
	}

	frames := 0
	for off := 0; off < len(payload); off += a.chunkSize {
		end := off + a.chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		if err := a.t.BulkOut(EndpointOut, payload[off:end]); err != nil {
			return fmt.Errorf("frame %d failed: %w", frames, err)
		}
		frames++
	}
	if len(payload)%a.chunkSize == 0 {
		// Every frame was full-sized; delimit the message explicitly.
		if err := a.t.BulkOut(EndpointOut, nil); err != nil {
			return fmt.Errorf("zero length frame failed: %w", err)
		}
	}
	slog.Debug("Payload sent", "bytes", len(payload), "frames", frames)

	status := make([]byte, 1)
	n, err := a.t.BulkIn(EndpointIn, status)
	if err != nil {
		return fmt.Errorf("status read failed: %w", err)
	}
	if n != 1 {
		return &usb.TransportError{Op: "status read", Err: fmt.Errorf("expected 1 byte, got %d", n)}
	}
	return statusErr(status[0])
}

// Process runs a bitmap through the accessory: the image is RLE-encoded,
// sent with SendImage, and the processed payload is read back from the in
// endpoint and decoded. The returned bitmap is always a fresh buffer.
func (a *Accessory) Process(bmp []byte) ([]byte, error) {
	if len(bmp) == 0 {
		return nil, fmt.Errorf("%w: empty image", usb.ErrInvalidArgument)
	}

	encoded := rle.Encode(bmp)
	slog.Debug("Image encoded", "raw", len(bmp), "encoded", len(encoded))
	if err := a.SendImage(encoded); err != nil {
		return nil, err
	}

	var response []byte
	buf := make([]byte, a.chunkSize)
	for {
		n, err := a.t.BulkIn(EndpointIn, buf)
		if err != nil {
			return nil, fmt.Errorf("response read failed: %w", err)
		}
		response = append(response, buf[:n]...)
		if n < a.chunkSize {
			break
		}
	}

	decoded, err := rle.Decode(response)
	if err != nil {
		return nil, fmt.Errorf("malformed response stream: %w", err)
	}
	return decoded, nil
}
