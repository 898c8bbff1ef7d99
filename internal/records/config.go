package records

import (
	"klimadriver/internal/codec"
)

// History interval enum values, minutes per step. HI05Min is the clamp
// ceiling: any desired interval larger than 5 minutes is forced down to it
// before being written back to the station.
const (
	HI01Min = 0
	HI05Min = 1
	HI10Min = 2
	HI15Min = 3
	HI30Min = 4
	HI01Std = 5
	HI02Std = 6
	HI03Std = 7
	HI06Std = 8
)

// HistoryIntervalMinutes maps the enum to its duration in minutes.
var HistoryIntervalMinutes = map[int]int{
	HI01Min: 1,
	HI05Min: 5,
	HI10Min: 10,
	HI15Min: 15,
	HI30Min: 30,
	HI01Std: 60,
	HI02Std: 120,
	HI03Std: 180,
	HI06Std: 360,
}

// noSensorLabel is the decoded label that means the slot has no sensor
// attached - renaming it must be refused by callers.
const noSensorLabel = "!E@@!!!!!!"

// configTempBufmap[0] is max-temp offsets, [1] is min-temp offsets, one
// per channel 0..8.
var configTempBufmap = [2][9]int{
	{8, 11, 14, 17, 20, 23, 26, 29, 32},
	{9, 12, 15, 18, 21, 24, 27, 30, 33},
}

// configHumidityBufmap[0] is max-humidity offsets, [1] is min-humidity
// offsets, one per channel 0..8.
var configHumidityBufmap = [2][9]int{
	{35, 37, 39, 41, 43, 45, 47, 49, 51},
	{36, 38, 40, 42, 44, 46, 48, 50, 52},
}

// configDescriptionOffset gives, per channel 1..8, the offset of that
// channel's 8-byte packed label block.
var configDescriptionOffset = [8]int{58, 66, 74, 82, 90, 98, 106, 114}

// StationConfig is the decoded/desired 125-byte station configuration
// block: display settings, per-channel alarm thresholds, sensor labels and
// the alarm-enable mask.
type StationConfig struct {
	Settings byte
	// TimeZone is stored as the station sends it: an unsigned byte where
	// values above 12 represent a negative offset (value - 256). Use
	// TimeZoneHours for the signed interpretation.
	TimeZone        int
	HistoryInterval int

	TempMax, TempMin         [9]float64
	HumidityMax, HumidityMin [9]float64

	AlarmSet  [5]byte
	ResetHiLo byte

	// Labels[1..8] (index 0 unused) holds each channel's decoded 10
	// character sensor label.
	Labels [9]string
	// descriptions holds the raw packed 8-byte blocks as read, so a
	// round-trip write that only touches a couple of labels doesn't have
	// to reconstruct bytes it never decoded.
	descriptions [9][8]byte

	InBufCS  uint16
	OutBufCS uint16
}

// TimeZoneHours returns the station's configured timezone offset as a
// signed number of hours.
func (c StationConfig) TimeZoneHours() int {
	if c.TimeZone > 12 {
		return c.TimeZone - 256
	}
	return c.TimeZone
}

func checksumRange(buf []byte, start, end int) int {
	sum := 0
	for i := start; i < end; i++ {
		sum += int(buf[i])
	}
	return sum
}

// DecodeStationConfig parses a 125-byte GET_CONFIG payload.
func DecodeStationConfig(buf []byte) StationConfig {
	sc := StationConfig{
		Settings:        buf[5],
		TimeZone:        int(buf[6]),
		HistoryInterval: int(buf[7] & 0xF),
	}
	for x := 0; x < 9; x++ {
		sc.TempMax[x] = codec.ToTemperature310(buf, configTempBufmap[0][x], true)
		sc.TempMin[x] = codec.ToTemperature310(buf, configTempBufmap[1][x], false)
		sc.HumidityMax[x] = codec.ToHumidity20(buf, configHumidityBufmap[0][x], true)
		sc.HumidityMin[x] = codec.ToHumidity20(buf, configHumidityBufmap[1][x], true)
	}
	copy(sc.AlarmSet[:], buf[53:53+5])
	for x := 1; x <= 8; x++ {
		off := configDescriptionOffset[x-1]
		copy(sc.descriptions[x][:], buf[off:off+8])
		txt1 := codec.ToCharacters32(buf, off+6, false)
		txt2 := codec.ToCharacters32(buf, off+5, true)
		txt3 := codec.ToCharacters32(buf, off+3, false)
		txt4 := codec.ToCharacters32(buf, off+2, true)
		txt5 := codec.ToCharacters32(buf, off, false)
		label := txt1 + txt2 + txt3 + txt4 + txt5
		if label == noSensorLabel {
			sc.Labels[x] = "(No sensor)"
		} else {
			sc.Labels[x] = label
		}
	}
	sc.ResetHiLo = buf[122]
	sc.InBufCS = uint16(buf[123])<<8 | uint16(buf[124])
	sc.OutBufCS = uint16(checksumRange(buf, 5, 122) + 7)
	return sc
}

// SetLabel sets channel x's (1..8) sensor label, refusing renames of a
// slot that reads as having no sensor attached, and trims/validates
// against the station's 6-bit character set via codec.EncodeLabel.
func (c *StationConfig) SetLabel(x int, label string) bool {
	if x < 1 || x > 8 {
		return false
	}
	if c.Labels[x] == "(No sensor)" {
		return false
	}
	if len(label) > 10 {
		label = label[:10]
	}
	packed := codec.EncodeLabel(label)
	copy(c.descriptions[x][:], packed[:])
	c.Labels[x] = label
	return true
}

// SetAlarmClockOffset arms the station's beeper for a clock-drift alarm:
// Humidity0Min is repurposed as a sentinel the station displays, and
// AlarmSet[4] bit 1 is set.
func (c *StationConfig) SetAlarmClockOffset() {
	c.HumidityMin[0] = 99
	c.AlarmSet[4] = (c.AlarmSet[4] &^ 0x2) | 0x2
}

// ResetAlarmClockOffset clears the clock-drift alarm armed by
// SetAlarmClockOffset.
func (c *StationConfig) ResetAlarmClockOffset() {
	c.HumidityMin[0] = 20
	c.AlarmSet[4] = c.AlarmSet[4] &^ 0x2
}

// ClearResetHiLo clears the one-shot reset-hi-lo request once the station
// has confirmed the config write that carried it.
func (c *StationConfig) ClearResetHiLo() {
	c.ResetHiLo = 0
}

// Encode renders the desired configuration into a 125-byte outbound
// buffer and returns whether the resulting checksum differs from the one
// last read from the station (InBufCS) - i.e. whether a REQ_SET_CONFIG
// round trip is needed. HistoryInterval above HI05Min is clamped before
// encoding, mutating the receiver.
func (c *StationConfig) Encode() (changed bool, buf [125]byte) {
	if c.HistoryInterval > HI05Min {
		c.HistoryInterval = HI05Min
	}
	buf[5] = c.Settings
	buf[6] = byte(c.TimeZone)
	buf[7] = byte(c.HistoryInterval)

	for x := 0; x < 9; x++ {
		codec.Parse1(c.TempMax[x]+codec.TemperatureOffset, buf[:], configTempBufmap[0][x], true, 3)
		codec.Parse1(c.TempMin[x]+codec.TemperatureOffset, buf[:], configTempBufmap[1][x], false, 3)
		codec.ReverseByteOrder(buf[:], configTempBufmap[0][x], 3)
		codec.Parse0(int(c.HumidityMax[x]), buf[:], configHumidityBufmap[0][x], true, 2)
		codec.Parse0(int(c.HumidityMin[x]), buf[:], configHumidityBufmap[1][x], true, 2)
		codec.ReverseByteOrder(buf[:], configHumidityBufmap[0][x], 2)
	}

	for y := 0; y < 5; y++ {
		buf[53+y] = c.AlarmSet[4-y]
	}

	for x := 1; x <= 8; x++ {
		off := configDescriptionOffset[x-1]
		copy(buf[off:off+8], c.descriptions[x][:])
	}

	buf[122] = c.ResetHiLo
	sum := checksumRange(buf[:], 5, 122) + 7
	c.OutBufCS = uint16(sum)
	buf[123] = byte(sum >> 8)
	buf[124] = byte(sum)

	changed = c.OutBufCS != c.InBufCS
	return changed, buf
}
