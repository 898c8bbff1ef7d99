package transceiver

import "fmt"

// Control-transfer request codes and wValue selectors. OUT ops use the
// class/vendor "set report" request; IN ops use "clear feature", which is
// the request code the dongle's firmware happens to answer reads on - both
// numbers come straight off the wire protocol, not the USB spec's intended
// meaning for them.
const (
	reqSetReport     = 0x09
	reqClearFeature  = 0x01
	valSetTX         = 0x3d1
	valSetRX         = 0x3d0
	valGetState      = 0x3de
	valReadCfgWrite  = 0x3dd
	valReadCfgRead   = 0x3dc
	valSetState      = 0x3d7
	valSetFrame      = 0x3d5
	valGetFrame      = 0x3d6
	valWriteReg      = 0x3f0
	valExecute       = 0x3d9
	valSetPreamble   = 0x3d8
)

// SetTX puts the dongle into transmit mode.
func (d *Device) SetTX() error {
	buf := make([]byte, 0x15)
	buf[0] = 0xD1
	_, err := d.control(true, reqSetReport, valSetTX, 0, buf)
	return err
}

// SetRX puts the dongle into receive mode.
func (d *Device) SetRX() error {
	buf := make([]byte, 0x15)
	buf[0] = 0xD0
	_, err := d.control(true, reqSetReport, valSetRX, 0, buf)
	return err
}

// GetState reports the dongle's current state as a two-byte code.
func (d *Device) GetState() ([2]byte, error) {
	buf := make([]byte, 0x0a)
	_, err := d.control(false, reqClearFeature, valGetState, 0, buf)
	var state [2]byte
	if err != nil {
		return state, err
	}
	copy(state[:], buf[1:3])
	return state, nil
}

// ReadConfigFlash reads nbytes starting at addr from the dongle's config
// flash, 16 bytes per control-transfer round trip.
func (d *Device) ReadConfigFlash(addr, nbytes int) ([]byte, error) {
	out := make([]byte, 0, nbytes)
	for nbytes > 0 {
		req := make([]byte, 0x0f)
		for i := range req {
			req[i] = 0xcc
		}
		req[0] = 0xdd
		req[1] = 0x0a
		req[2] = byte(addr >> 8)
		req[3] = byte(addr)
		if _, err := d.control(true, reqSetReport, valReadCfgWrite, 0, req); err != nil {
			return nil, fmt.Errorf("transceiver: readConfigFlash write phase: %w", err)
		}

		resp := make([]byte, 0x15)
		if _, err := d.control(false, reqClearFeature, valReadCfgRead, 0, resp); err != nil {
			return nil, fmt.Errorf("transceiver: readConfigFlash read phase: %w", err)
		}

		n := 16
		if nbytes < n {
			n = nbytes
		}
		out = append(out, resp[4:4+n]...)
		nbytes -= n
		addr += n
	}
	return out, nil
}

// SetState sets the dongle's operating state.
func (d *Device) SetState(state byte) error {
	buf := make([]byte, 0x15)
	buf[0] = 0xd7
	buf[1] = state
	_, err := d.control(true, reqSetReport, valSetState, 0, buf)
	return err
}

// SetFrame loads data into the dongle's outbound frame buffer.
func (d *Device) SetFrame(data []byte) error {
	if len(data) > 0x111-3 {
		return fmt.Errorf("transceiver: setFrame payload too large: %d bytes", len(data))
	}
	buf := make([]byte, 0x111)
	buf[0] = 0xd5
	buf[1] = byte(len(data) >> 8)
	buf[2] = byte(len(data))
	copy(buf[3:], data)
	_, err := d.control(true, reqSetReport, valSetFrame, 0, buf)
	return err
}

// GetFrame reads the dongle's inbound frame buffer.
func (d *Device) GetFrame() ([]byte, error) {
	buf := make([]byte, 0x111)
	if _, err := d.control(false, reqClearFeature, valGetFrame, 0, buf); err != nil {
		return nil, err
	}
	nbytes := (int(buf[1])<<8 | int(buf[2])) & 0x1ff
	if nbytes > len(buf)-3 {
		nbytes = len(buf) - 3
	}
	data := make([]byte, nbytes)
	copy(data, buf[3:3+nbytes])
	return data, nil
}

// WriteReg writes one byte to an AX5051 transceiver register.
func (d *Device) WriteReg(regAddr, data byte) error {
	buf := []byte{0xf0, regAddr & 0x7F, 0x01, data, 0x00}
	_, err := d.control(true, reqSetReport, valWriteReg, 0, buf)
	return err
}

// Execute issues a dongle firmware command.
func (d *Device) Execute(command byte) error {
	buf := make([]byte, 0x0f)
	buf[0] = 0xd9
	buf[1] = command
	_, err := d.control(true, reqSetReport, valExecute, 0, buf)
	return err
}

// SetPreamblePattern sets the RF preamble byte the dongle looks for.
func (d *Device) SetPreamblePattern(pattern byte) error {
	buf := make([]byte, 0x15)
	buf[0] = 0xd8
	buf[1] = pattern
	_, err := d.control(true, reqSetReport, valSetPreamble, 0, buf)
	return err
}
