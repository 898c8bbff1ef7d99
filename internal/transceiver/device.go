// Package transceiver talks to the klogg USB dongle over control transfers.
// It owns the one gousb handle the whole driver ever touches and exposes the
// dongle's primitive operations (state machine, frame buffer, config flash,
// AX5051 register bank) as plain methods - no protocol knowledge lives here,
// that belongs to internal/service.
package transceiver

import (
	"fmt"
	"time"

	"github.com/google/gousb"
)

// VendorID and ProductID identify the klogg USB dongle.
const (
	VendorID  = 0x6666
	ProductID = 0x5555

	usbInterface = 0
	usbAltSetup  = 0
	usbTimeout   = 1000 * time.Millisecond
)

// Device owns the USB handle for one klogg dongle. All control-transfer
// methods on Device assume exclusive ownership - callers serialize access
// themselves (internal/service runs them from a single goroutine).
type Device struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	cfg    *gousb.Config
	intf   *gousb.Interface
	tracer *USBTracer
}

// Open finds the first klogg dongle on the bus matching vid/pid and claims
// its control interface. serial, if non-empty, restricts the search to a
// device whose config-flash serial number matches.
func Open(vid, pid uint16, serial string) (*Device, error) {
	ctx := gousb.NewContext()

	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == vid && uint16(desc.Product) == pid
	})
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("transceiver: enumerate usb devices: %w", err)
	}
	if len(devices) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("transceiver: no usb device with vendor=0x%04x product=0x%04x", vid, pid)
	}

	var chosen *gousb.Device
	for _, d := range devices {
		if serial == "" {
			chosen = d
			break
		}
		sn, err := readSerialUnclaimed(d)
		if err == nil && sn == serial {
			chosen = d
			break
		}
	}
	for _, d := range devices {
		if d != chosen {
			d.Close()
		}
	}
	if chosen == nil {
		ctx.Close()
		return nil, fmt.Errorf("transceiver: no usb device with serial %q", serial)
	}

	chosen.SetAutoDetach(true)

	cfg, err := chosen.Config(1)
	if err != nil {
		chosen.Close()
		ctx.Close()
		return nil, fmt.Errorf("transceiver: set usb config: %w", err)
	}

	intf, err := cfg.Interface(usbInterface, usbAltSetup)
	if err != nil {
		cfg.Close()
		chosen.Close()
		ctx.Close()
		return nil, fmt.Errorf("transceiver: claim usb interface: %w", err)
	}

	return &Device{ctx: ctx, dev: chosen, cfg: cfg, intf: intf, tracer: NewUSBTracer()}, nil
}

// Close releases the interface and the USB context, in the opposite order
// to acquisition.
func (d *Device) Close() error {
	if d.tracer != nil {
		d.tracer.Close()
	}
	if d.intf != nil {
		d.intf.Close()
	}
	var err error
	if d.cfg != nil {
		err = d.cfg.Close()
	}
	if d.dev != nil {
		if cerr := d.dev.Close(); err == nil {
			err = cerr
		}
	}
	if d.ctx != nil {
		if cerr := d.ctx.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// readSerialUnclaimed reads the config-flash serial of a dongle that Open
// has not yet chosen. It claims the dongle's interface for the duration of
// the read and releases it again on return.
func readSerialUnclaimed(dev *gousb.Device) (string, error) {
	cfg, err := dev.Config(1)
	if err != nil {
		return "", err
	}
	defer cfg.Close()
	intf, err := cfg.Interface(usbInterface, usbAltSetup)
	if err != nil {
		return "", err
	}
	defer intf.Close()

	probe := &Device{dev: dev, cfg: cfg, intf: intf}
	buf, err := probe.ReadConfigFlash(0x1F9, 7)
	if err != nil {
		return "", err
	}
	return formatSerial(buf), nil
}

func (d *Device) control(out bool, request uint8, value, index uint16, data []byte) (int, error) {
	dir := gousb.ControlOut
	if !out {
		dir = gousb.ControlIn
	}
	rType := uint8(dir) | uint8(gousb.ControlClass) | uint8(gousb.ControlInterface)
	start := time.Now()
	n, err := d.dev.Control(rType, request, value, index, data)
	if d.tracer != nil {
		d.tracer.Observe(request, time.Since(start))
	}
	return n, err
}
