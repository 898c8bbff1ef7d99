package transceiver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrateFrequency_OddifiesResult(t *testing.T) {
	f := calibrateFrequency("EU", 0)
	assert.NotZero(t, f%2, "calibrated frequency word must be odd")
}

func TestCalibrateFrequency_UnknownStandardFallsBackToEU(t *testing.T) {
	assert.Equal(t, calibrateFrequency("EU", 5), calibrateFrequency("bogus", 5))
}

func TestCalibrateFrequency_AppliesCorrection(t *testing.T) {
	base := calibrateFrequency("US", 0)
	corrected := calibrateFrequency("US", 1000)
	assert.Greater(t, corrected, base)
}

func TestDecodeFrequencyCorrection_RoundTripsSignBit(t *testing.T) {
	assert.Equal(t, int32(-1), decodeFrequencyCorrection([]byte{0xff, 0xff, 0xff, 0xff}))
	assert.Equal(t, int32(1), decodeFrequencyCorrection([]byte{0x00, 0x00, 0x00, 0x01}))
}

func TestFormatSerial_TwoDigitZeroPaddedPerByte(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, "01020304050607", formatSerial(buf))
}

func TestDeviceIDFromPairingBlock_UsesLastTwoBytes(t *testing.T) {
	buf := []byte{0, 0, 0, 0, 0, 0x12, 0x34}
	assert.Equal(t, uint16(0x1234), deviceIDFromPairingBlock(buf))
}

func TestPatchFrequency_OverwritesOnlyFreqRegisters(t *testing.T) {
	table := baseRegisterTable()
	patched := patchFrequency(table, 0x12345678)
	found := map[byte]byte{}
	for _, rv := range patched {
		found[rv.addr] = rv.value
	}
	assert.Equal(t, byte(0x12), found[regFreq3])
	assert.Equal(t, byte(0x34), found[regFreq2])
	assert.Equal(t, byte(0x56), found[regFreq1])
	assert.Equal(t, byte(0x78), found[regFreq0])
	assert.Equal(t, byte(0x00), found[regIFMode])
}
