// Package records decodes the fixed-layout frame payloads the klogg base
// station returns for GET_CURRENT, GET_HISTORY and GET_CONFIG: the current
// per-channel reading snapshot, a six-slot history block, and the station
// configuration block, plus the reverse encode path used to push a new
// configuration or time back to the station.
package records

import (
	"time"

	"klimadriver/internal/codec"
)

// ChannelStat is one channel's current temperature/humidity reading plus
// its recorded min/max and the timestamps those extremes were recorded at.
// The min/max timestamps are decoded independently per channel and per
// metric - nothing here falls back to a neighboring channel's timestamp.
type ChannelStat struct {
	Temp      float64
	TempMax   float64
	TempMaxAt time.Time
	TempMin   float64
	TempMinAt time.Time

	Humidity      float64
	HumidityMax   float64
	HumidityMaxAt time.Time
	HumidityMin   float64
	HumidityMinAt time.Time
}

// currentBufmap gives, per channel index 0..8, the ten byte offsets the
// original firmware packs that channel's fields at: max-temp, min-temp,
// temp, max-temp-dt, min-temp-dt, max-humidity, min-humidity, humidity,
// max-humidity-dt, min-humidity-dt.
var currentBufmap = [9][10]int{
	{26, 28, 29, 18, 22, 15, 16, 17, 7, 11},
	{50, 52, 53, 42, 46, 39, 40, 41, 31, 35},
	{74, 76, 77, 66, 70, 63, 64, 65, 55, 59},
	{98, 100, 101, 90, 94, 87, 88, 89, 79, 83},
	{122, 124, 125, 114, 118, 111, 112, 113, 103, 107},
	{146, 148, 149, 138, 142, 135, 136, 137, 127, 131},
	{170, 172, 173, 162, 166, 159, 160, 161, 151, 155},
	{194, 196, 197, 186, 190, 183, 184, 185, 175, 179},
	{218, 220, 221, 210, 214, 207, 208, 209, 199, 203},
}

// CurrentData is the decoded GET_CURRENT response: one snapshot per
// station channel, the link quality seen on that frame and the raw alarm
// nibble block.
type CurrentData struct {
	Timestamp     time.Time
	SignalQuality int
	Channels      [9]ChannelStat
	// AlarmData is kept as a raw passthrough - the station packs alarm
	// condition nibbles here that are otherwise uninterpreted.
	AlarmData [12]byte
}

// DecodeCurrentData parses a 229-byte GET_CURRENT payload.
func DecodeCurrentData(buf []byte, now time.Time) CurrentData {
	cd := CurrentData{
		Timestamp:     now,
		SignalQuality: int(buf[4] & 0x7F),
	}
	for x := 0; x < 9; x++ {
		m := currentBufmap[x]
		ch := ChannelStat{}
		ch.TempMax = codec.ToTemperature310(buf, m[0], false)
		ch.TempMin = codec.ToTemperature310(buf, m[1], true)
		ch.Temp = codec.ToTemperature310(buf, m[2], false)
		if ch.TempMax != codec.TemperatureNP && ch.TempMax != codec.TemperatureOFL {
			ch.TempMaxAt = codec.ToDateTime8(buf, m[3], false)
		}
		if ch.TempMin != codec.TemperatureNP && ch.TempMin != codec.TemperatureOFL {
			ch.TempMinAt = codec.ToDateTime8(buf, m[4], false)
		}

		ch.HumidityMax = codec.ToHumidity20(buf, m[5], true)
		ch.HumidityMin = codec.ToHumidity20(buf, m[6], true)
		ch.Humidity = codec.ToHumidity20(buf, m[7], true)
		if ch.HumidityMax != codec.HumidityNP && ch.HumidityMax != codec.HumidityOFL {
			ch.HumidityMaxAt = codec.ToDateTime8(buf, m[8], true)
		}
		if ch.HumidityMin != codec.HumidityNP && ch.HumidityMin != codec.HumidityOFL {
			ch.HumidityMinAt = codec.ToDateTime8(buf, m[9], true)
		}
		cd.Channels[x] = ch
	}
	// A 229-byte payload carries only the first six AlarmData bytes; the
	// rest stay zero.
	copy(cd.AlarmData[:], buf[223:])
	return cd
}

// BatteryOK reports whether channel x's battery is good. Channel 0 (the
// base station's own indoor sensor) is bit 7 of AlarmData[1], good when
// that bit is 0 after XOR with 0x80 - i.e. good when the raw bit is set.
// Channels 1-8 are bit (n-1) of AlarmData[0], an alarm-triggered-low bit:
// good when that bit is clear.
func (cd CurrentData) BatteryOK(channel int) bool {
	switch {
	case channel == 0:
		return cd.AlarmData[1]&0x80 != 0
	case channel >= 1 && channel <= 8:
		return cd.AlarmData[0]&(1<<uint(channel-1)) == 0
	default:
		return false
	}
}
