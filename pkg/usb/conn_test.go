package usb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransfer struct {
	ep   uint8
	data []byte
}

// fakeDevice scripts transfer results and records every call.
type fakeDevice struct {
	outs    []fakeTransfer
	outErr  error
	shortBy int

	inData []byte
	inErr  error

	closes   int
	closeErr error
}

func (d *fakeDevice) BulkOut(ep uint8, data []byte) (int, error) {
	d.outs = append(d.outs, fakeTransfer{ep: ep, data: append([]byte(nil), data...)})
	if d.outErr != nil {
		return 0, d.outErr
	}
	return len(data) - d.shortBy, nil
}

func (d *fakeDevice) BulkIn(ep uint8, buf []byte) (int, error) {
	if d.inErr != nil {
		return 0, d.inErr
	}
	n := copy(buf, d.inData)
	return n, nil
}

func (d *fakeDevice) Close() error {
	d.closes++
	return d.closeErr
}

type fakeBackend struct {
	dev     *fakeDevice
	openErr error

	opens      int
	lastVendor uint16
	lastProd   uint16
	closes     int
}

func (b *fakeBackend) Open(vendorID, productID uint16) (Device, error) {
	b.opens++
	b.lastVendor = vendorID
	b.lastProd = productID
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.dev, nil
}

func (b *fakeBackend) Close() error {
	b.closes++
	return nil
}

func TestConnectNotPresent(t *testing.T) {
	b := &fakeBackend{openErr: ErrNotPresent}
	c := NewWithBackend(b)

	err := c.Connect(0xc0de, 0xcafe)
	assert.ErrorIs(t, err, ErrNotPresent)
	assert.Equal(t, uint16(0xc0de), b.lastVendor)
	assert.Equal(t, uint16(0xcafe), b.lastProd)

	// The connection stayed unopened.
	err = c.BulkOut(0x01, []byte{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConnectAlreadyConnected(t *testing.T) {
	b := &fakeBackend{dev: &fakeDevice{}}
	c := NewWithBackend(b)

	require.NoError(t, c.Connect(0xc0de, 0xcafe))
	err := c.Connect(0xc0de, 0xcafe)
	assert.ErrorIs(t, err, ErrAlreadyConnected)
	// The second call had no side effect on the open handle.
	assert.Equal(t, 1, b.opens)
	assert.Equal(t, 0, b.dev.closes)

	assert.NoError(t, c.BulkOut(0x01, []byte{1}))
}

func TestEndpointDirectionValidation(t *testing.T) {
	dev := &fakeDevice{}
	c := NewWithBackend(&fakeBackend{dev: dev})
	require.NoError(t, c.Connect(0xc0de, 0xcafe))

	err := c.BulkOut(0x81, []byte{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.BulkIn(0x01, make([]byte, 4))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// Direction checks fire before any transport call.
	assert.Empty(t, dev.outs)
}

func TestBulkInEmptyBuffer(t *testing.T) {
	c := NewWithBackend(&fakeBackend{dev: &fakeDevice{}})
	require.NoError(t, c.Connect(0xc0de, 0xcafe))

	_, err := c.BulkIn(0x81, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBulkRoundTrip(t *testing.T) {
	dev := &fakeDevice{inData: []byte{0x2a, 0x2b}}
	c := NewWithBackend(&fakeBackend{dev: dev})
	require.NoError(t, c.Connect(0xc0de, 0xcafe))

	require.NoError(t, c.BulkOut(0x01, []byte{1, 2, 3}))
	require.Len(t, dev.outs, 1)
	assert.Equal(t, uint8(0x01), dev.outs[0].ep)
	assert.Equal(t, []byte{1, 2, 3}, dev.outs[0].data)

	buf := make([]byte, 8)
	n, err := c.BulkIn(0x81, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x2a, 0x2b}, buf[:n])
}

func TestBulkOutShortWrite(t *testing.T) {
	dev := &fakeDevice{shortBy: 1}
	c := NewWithBackend(&fakeBackend{dev: dev})
	require.NoError(t, c.Connect(0xc0de, 0xcafe))

	err := c.BulkOut(0x01, []byte{1, 2, 3})
	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func TestTransferFailureKeepsConnectionOpen(t *testing.T) {
	dev := &fakeDevice{outErr: errors.New("pipe stalled")}
	c := NewWithBackend(&fakeBackend{dev: dev})
	require.NoError(t, c.Connect(0xc0de, 0xcafe))

	err := c.BulkOut(0x01, []byte{1})
	var te *TransportError
	require.ErrorAs(t, err, &te)

	// Still opened: the retry reaches the device again.
	dev.outErr = nil
	assert.NoError(t, c.BulkOut(0x01, []byte{1}))
	assert.Len(t, dev.outs, 2)
}

func TestCloseIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	b := &fakeBackend{dev: dev}
	c := NewWithBackend(b)
	require.NoError(t, c.Connect(0xc0de, 0xcafe))

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.Equal(t, 1, dev.closes)

	err := c.BulkOut(0x01, []byte{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCloseSuppressesReleaseErrors(t *testing.T) {
	dev := &fakeDevice{closeErr: errors.New("device vanished")}
	c := NewWithBackend(&fakeBackend{dev: dev})
	require.NoError(t, c.Connect(0xc0de, 0xcafe))

	assert.NoError(t, c.Close())
	assert.Equal(t, 1, dev.closes)
}

func TestReconnectAfterClose(t *testing.T) {
	b := &fakeBackend{dev: &fakeDevice{}}
	c := NewWithBackend(b)

	require.NoError(t, c.Connect(0xc0de, 0xcafe))
	require.NoError(t, c.Close())
	require.NoError(t, c.Connect(0xc0de, 0xcafe))
	assert.Equal(t, 2, b.opens)
}
