package usb

import (
	"fmt"

	"github.com/google/gousb"
	"github.com/hashicorp/go-multierror"
)

// gousbBackend opens devices through libusb via gousb.
type gousbBackend struct {
	ctx *gousb.Context
}

func newGousbBackend() (*gousbBackend, error) {
	ctx, err := newContext()
	if err != nil {
		return nil, err
	}
	return &gousbBackend{ctx: ctx}, nil
}

// newContext allocates a gousb context. gousb panics when libusb cannot be
// initialized, so the allocation runs on a separate goroutine with a recover
// handler and the panic is turned into an error.
func newContext() (*gousb.Context, error) {
	resC := make(chan *gousb.Context)
	errC := make(chan error)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errC <- fmt.Errorf("%v", r)
			}
		}()

		resC <- gousb.NewContext()
	}()

	select {
	case err := <-errC:
		return nil, err
	case res := <-resC:
		return res, nil
	}
}

func (b *gousbBackend) Open(vendorID, productID uint16) (Device, error) {
	if b.ctx == nil {
		ctx, err := newContext()
		if err != nil {
			return nil, transportErr("context", err)
		}
		b.ctx = ctx
	}

	var errs error
	devs, err := b.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(vendorID) && desc.Product == gousb.ID(productID)
	})
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	if len(devs) != 1 {
		// More than one match is ambiguous and as unusable as none.
		for _, dev := range devs {
			dev.Close()
		}
		if len(devs) == 0 && errs != nil {
			return nil, transportErr("open", errs)
		}
		return nil, ErrNotPresent
	}

	dev, err := claim(devs[0])
	if err != nil {
		errs = multierror.Append(errs, err)
		devs[0].Close()
		return nil, transportErr("claim", errs)
	}
	return dev, nil
}

func (b *gousbBackend) Close() error {
	if b.ctx == nil {
		return nil
	}
	err := b.ctx.Close()
	b.ctx = nil
	return err
}

// gousbDevice is an opened device with its bulk endpoints resolved, keyed by
// endpoint number.
type gousbDevice struct {
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	in   map[uint8]*gousb.InEndpoint
	out  map[uint8]*gousb.OutEndpoint
}

// claim takes over interface 0 of the device's active configuration from any
// OS driver and resolves the endpoints of its first alt setting.
func claim(dev *gousb.Device) (*gousbDevice, error) {
	if err := dev.SetAutoDetach(true); err != nil {
		return nil, fmt.Errorf("autodetach: %w", err)
	}
	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		return nil, fmt.Errorf("active config: %w", err)
	}
	cfg, err := dev.Config(cfgNum)
	if err != nil {
		return nil, fmt.Errorf("config %d: %w", cfgNum, err)
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		return nil, fmt.Errorf("claim interface: %w", err)
	}

	d := &gousbDevice{
		dev:  dev,
		cfg:  cfg,
		intf: intf,
		in:   make(map[uint8]*gousb.InEndpoint),
		out:  make(map[uint8]*gousb.OutEndpoint),
	}
	eps := dev.Desc.Configs[cfg.Desc.Number].Interfaces[0].AltSettings[0].Endpoints
	for _, ep := range eps {
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			d.in[uint8(ep.Number)], err = intf.InEndpoint(ep.Number)
		case gousb.EndpointDirectionOut:
			d.out[uint8(ep.Number)], err = intf.OutEndpoint(ep.Number)
		}
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("endpoint %d: %w", ep.Number, err)
		}
	}
	return d, nil
}

func (d *gousbDevice) BulkOut(ep uint8, data []byte) (int, error) {
	out, ok := d.out[ep&0x0f]
	if !ok {
		return 0, fmt.Errorf("device has no bulk out endpoint 0x%02x", ep)
	}
	return out.Write(data)
}

func (d *gousbDevice) BulkIn(ep uint8, buf []byte) (int, error) {
	in, ok := d.in[ep&0x0f]
	if !ok {
		return 0, fmt.Errorf("device has no bulk in endpoint 0x%02x", ep)
	}
	return in.Read(buf)
}

func (d *gousbDevice) Close() error {
	var errs error
	d.intf.Close()
	if err := d.cfg.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := d.dev.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}
