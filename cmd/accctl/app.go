package main

import (
	"fmt"

	"github.com/cring-electronics/acceleratorinator/pkg/accessory"
	"github.com/cring-electronics/acceleratorinator/pkg/usb"
)

// dialAccessory opens a USB connection to the acceleratorinator. The caller
// owns the returned connection and must Close it on every exit path.
func dialAccessory(opts ...accessory.Option) (*usb.Conn, *accessory.Accessory, error) {
	conn, err := usb.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize USB: %w", err)
	}
	acc, err := accessory.Dial(conn, opts...)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to connect to accelerator: %w", err)
	}
	return conn, acc, nil
}
