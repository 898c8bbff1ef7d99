package records

import (
	"time"

	"klimadriver/internal/codec"
)

// historyBufmap gives, per history position 1..6, the byte offset of the
// datetime field and the nine per-channel temperature/humidity offsets for
// a sample record at that position.
var historyBufmap = map[int]struct {
	dt       int
	temp     [9]int
	humidity [9]int
}{
	1: {176, [9]int{174, 173, 171, 170, 168, 167, 165, 164, 162}, [9]int{161, 160, 159, 158, 157, 156, 155, 154, 153}},
	2: {148, [9]int{146, 145, 143, 142, 140, 139, 137, 136, 134}, [9]int{133, 132, 131, 130, 129, 128, 127, 126, 125}},
	3: {120, [9]int{118, 117, 115, 114, 112, 111, 109, 108, 106}, [9]int{105, 104, 103, 102, 101, 100, 99, 98, 97}},
	4: {92, [9]int{90, 89, 87, 86, 84, 83, 81, 80, 78}, [9]int{77, 76, 75, 74, 73, 72, 71, 70, 69}},
	5: {64, [9]int{62, 61, 59, 58, 56, 55, 53, 52, 50}, [9]int{49, 48, 47, 46, 45, 44, 43, 42, 41}},
	6: {36, [9]int{34, 33, 31, 30, 28, 27, 25, 24, 22}, [9]int{21, 20, 19, 18, 17, 16, 15, 14, 13}},
}

// historyBufmapAlarm gives, per position 1..6, the nine offsets an alarm
// record at that position is decoded from: discriminator, dt, sensor/type
// byte, temp, tempLo, tempHi, humidity, humidityLo, humidityHi.
var historyBufmapAlarm = map[int][9]int{
	1: {180, 175, 174, 172, 170, 169, 168, 167, 166},
	2: {152, 147, 146, 144, 142, 141, 140, 139, 138},
	3: {124, 119, 118, 116, 114, 113, 112, 111, 110},
	4: {96, 91, 90, 88, 86, 85, 84, 83, 82},
	5: {68, 63, 62, 60, 58, 57, 56, 55, 54},
	6: {40, 35, 34, 32, 30, 29, 28, 27, 26},
}

// alarmDiscriminator is the byte value at BUFMAPALA[pos][0] that marks a
// position as an alarm record instead of a sample record.
const alarmDiscriminator = 0xee

// HistorySample is a sample record: one timestamp plus T/H for all nine
// channels.
type HistorySample struct {
	Timestamp time.Time
	Temp      [9]float64
	Humidity  [9]float64
}

// HistoryAlarm is an alarm record: a timestamp, the triggering channel,
// an alarm-type nibble bitmask (bit0 humidity-high, bit1 humidity-low,
// bit2 temp-high, bit3 temp-low) and the limit/observed values involved.
type HistoryAlarm struct {
	Timestamp   time.Time
	Sensor      int
	AlarmType   int
	Temp        float64
	TempLo      float64
	TempHi      float64
	Humidity    float64
	HumidityLo  float64
	HumidityHi  float64
}

// HistoryPosition is one of the six record slots in a history frame -
// exactly one of Sample or Alarm is populated, per IsAlarm.
type HistoryPosition struct {
	IsAlarm bool
	Sample  HistorySample
	Alarm   HistoryAlarm
}

// HistoryData is a decoded GET_HISTORY response: the station's current
// latest ring-buffer address, this frame's position-6 address, and six
// record positions.
type HistoryData struct {
	Checksum    uint16
	LatestAddr  int
	ThisAddr    int
	Positions   [6]HistoryPosition
}

func addr24(buf []byte, start int) int {
	return int(buf[start])<<16 | int(buf[start+1])<<8 | int(buf[start+2])
}

// DecodeHistoryData parses a 181-byte GET_HISTORY payload.
func DecodeHistoryData(buf []byte) HistoryData {
	hd := HistoryData{
		Checksum:   uint16(buf[5])<<8 | uint16(buf[6]),
		LatestAddr: addr24(buf, 7),
		ThisAddr:   addr24(buf, 10),
	}
	for pos := 1; pos <= 6; pos++ {
		m := historyBufmap[pos]
		am := historyBufmapAlarm[pos]
		isAlarm := buf[am[0]] == alarmDiscriminator
		var hp HistoryPosition
		hp.IsAlarm = isAlarm
		if !isAlarm {
			s := HistorySample{Timestamp: codec.ToDateTime10(buf, m.dt, true)}
			for j := 0; j < 9; j++ {
				s.Temp[j] = codec.ToTemperature310(buf, m.temp[j], j%2 == 1)
				s.Humidity[j] = codec.ToHumidity20(buf, m.humidity[j], true)
			}
			hp.Sample = s
		} else {
			a := HistoryAlarm{
				Timestamp:  codec.ToDateTime10(buf, am[1], true),
				Temp:       codec.ToTemperature310(buf, am[3], false),
				TempLo:     codec.ToTemperature310(buf, am[4], false),
				TempHi:     codec.ToTemperature310(buf, am[5], true),
				Humidity:   codec.ToHumidity20(buf, am[6], true),
				HumidityLo: codec.ToHumidity20(buf, am[7], true),
				HumidityHi: codec.ToHumidity20(buf, am[8], true),
			}
			a.AlarmType = int(buf[am[2]]>>4) & 0xf
			a.Sensor = int(buf[am[2]]) & 0xf
			hp.Alarm = a
		}
		hd.Positions[pos-1] = hp
	}
	return hd
}
