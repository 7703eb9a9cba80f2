// Package usb drives the NZXT smart device over its USB HID interface.
package usb

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sstallion/go-hid"

	"smartdevice-controller/internal/protocol"
)

// USB identifiers of the smart device (H500i led and fan controller).
const (
	VendorID  = 0x1e71
	ProductID = 0x1714
)

// latchDelay gives the firmware time to latch frame 1 before frame 2 is
// written. Writing the second frame too early makes the device drop the
// whole command.
const latchDelay = 50 * time.Millisecond

// ErrNotConnected is returned when a command is sent while no device
// handle is open.
var ErrNotConnected = errors.New("smart device not connected")

// reportWriter is the raw report sink; satisfied by *hid.Device.
type reportWriter interface {
	Write(p []byte) (int, error)
}

// Device is an open handle to the smart device.
type Device struct {
	mu     sync.Mutex
	handle *hid.Device
	delay  time.Duration
}

// Open finds the smart device on the bus and opens its HID interface.
func Open() (*Device, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("hid init: %w", err)
	}

	var path string
	_ = hid.Enumerate(VendorID, ProductID, func(info *hid.DeviceInfo) error {
		if path == "" {
			path = info.Path
		}
		return nil
	})
	if path == "" {
		_ = hid.Exit()
		return nil, fmt.Errorf("smart device %04x:%04x not found", VendorID, ProductID)
	}

	handle, err := hid.OpenPath(path)
	if err != nil {
		_ = hid.Exit()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Device{handle: handle, delay: latchDelay}, nil
}

// Send writes the given commands in order, one command at a time. The
// first write error aborts the remaining frames and pairs.
func (d *Device) Send(pairs ...protocol.FramePair) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, pair := range pairs {
		if err := sendPair(d.handle, d.delay, pair); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the device handle and the HID library.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.handle.Close()
	if exitErr := hid.Exit(); err == nil {
		err = exitErr
	}
	return err
}

// sendPair writes one command: first frame, latch delay, second frame.
func sendPair(w reportWriter, delay time.Duration, pair protocol.FramePair) error {
	if _, err := w.Write(pair.First); err != nil {
		return fmt.Errorf("write frame 1: %w", err)
	}
	time.Sleep(delay)
	if _, err := w.Write(pair.Second); err != nil {
		return fmt.Errorf("write frame 2: %w", err)
	}
	return nil
}
