package transceiver

import "fmt"

// baseFrequencies maps the two frequency standards the station ships as to
// the nominal carrier frequency in Hz.
var baseFrequencies = map[string]uint32{
	"US": 905000000,
	"EU": 868300000,
}

// Settings is what pairing bootstrap discovers about the attached dongle:
// its identity on the RF link and the serial number printed on its case.
type Settings struct {
	DeviceID     uint16
	SerialNumber string
}

// calibrateFrequency turns a frequency standard into the 32-bit frequency
// word the AX5051 expects, folding in the per-device correction stored in
// config flash. The result is nudged to odd parity - firmware requires it,
// for reasons not documented anywhere but the binary.
func calibrateFrequency(standard string, correction int32) uint32 {
	freq, ok := baseFrequencies[standard]
	if !ok {
		freq = baseFrequencies["EU"]
	}
	freqVal := int64(float64(freq)/16000000.0*16777216.0) + int64(correction)
	if freqVal%2 == 0 {
		freqVal++
	}
	return uint32(freqVal)
}

// decodeFrequencyCorrection reassembles the signed 32-bit correction stored
// at config flash offset 0x1F5.
func decodeFrequencyCorrection(buf []byte) int32 {
	return int32(uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3]))
}

// formatSerial renders the 7 raw bytes read from config flash offset 0x1F9
// as the 14-digit decimal serial number printed on the dongle - each byte
// is its own two-digit, zero-padded field.
func formatSerial(buf []byte) string {
	s := ""
	for _, b := range buf[:7] {
		s += fmt.Sprintf("%02d", b)
	}
	return s
}

// deviceIDFromPairingBlock extracts the 16-bit transceiver identity from
// the same 7-byte block formatSerial reads its serial from.
func deviceIDFromPairingBlock(buf []byte) uint16 {
	return uint16(buf[5])<<8 | uint16(buf[6])
}

// Init configures the AX5051 register bank for the given frequency standard
// and reads back the dongle's pairing identity and serial number. It must
// run once after Open, before the dongle is put into RX or TX mode.
func (d *Device) Init(frequencyStandard string) (Settings, error) {
	corrBuf, err := d.ReadConfigFlash(0x1F5, 4)
	if err != nil {
		return Settings{}, fmt.Errorf("transceiver: read frequency correction: %w", err)
	}
	freq := calibrateFrequency(frequencyStandard, decodeFrequencyCorrection(corrBuf))

	pairingBuf, err := d.ReadConfigFlash(0x1F9, 7)
	if err != nil {
		return Settings{}, fmt.Errorf("transceiver: read pairing block: %w", err)
	}
	settings := Settings{
		DeviceID:     deviceIDFromPairingBlock(pairingBuf),
		SerialNumber: formatSerial(pairingBuf),
	}

	table := patchFrequency(baseRegisterTable(), freq)
	for _, rv := range table {
		if err := d.WriteReg(rv.addr, rv.value); err != nil {
			return Settings{}, fmt.Errorf("transceiver: write register 0x%02x: %w", rv.addr, err)
		}
	}

	return settings, nil
}
