package service

import (
	"time"

	"klimadriver/internal/historycache"
)

const ackReserved = 0x80

// buildACKFrame constructs the 11-byte ACK every non-pairing response ends
// with, applying the stale-weather morph: a pending GET_HISTORY is
// rewritten to GET_CURRENT once the cached current-data snapshot is more
// than 2*(commModeInterval+1) seconds old, except on the very first
// GET_HISTORY of a session (buf[1] == 0xF0).
func (s *Service) buildACKFrame(buf []byte, action Action, cs uint16, historyIndex *int) []byte {
	if s.lastCommand != nil && *s.lastCommand == ActionGetHistory && action == ActionGetHistory && buf[1] != 0xF0 {
		age := time.Since(s.stat.Get().LastWeatherTS)
		if age >= time.Duration(2*(int(s.commModeInterval)+1))*time.Second {
			action = ActionGetCurrent
		}
	}

	var haddr uint32
	switch {
	case historyIndex != nil && *historyIndex == -1:
		haddr = (uint32(s.identity.DeviceID) << 8) + uint32(s.loggerID)
	case historyIndex != nil && *historyIndex >= 0 && *historyIndex < historycache.MaxRecords:
		haddr = uint32(historycache.IndexToAddr(*historyIndex))
	default:
		latest := s.stat.Get().LatestHistoryIndex
		if latest > 0 {
			haddr = uint32(historycache.IndexToAddr(latest))
		} else {
			haddr = 0xFFFFFF
		}
	}

	out := make([]byte, 11)
	out[0] = buf[0]
	out[1] = buf[1]
	out[2] = buf[2]
	out[3] = byte(action) & 0x0F
	out[4] = byte(cs >> 8)
	out[5] = byte(cs)
	out[6] = ackReserved
	out[7] = s.commModeInterval
	out[8] = byte(haddr >> 16)
	out[9] = byte(haddr >> 8)
	out[10] = byte(haddr)
	return out
}

// buildFirstConfigFrame is sent the very first time a console pairs, before
// any device id is known to address an ACK to.
func (s *Service) buildFirstConfigFrame() []byte {
	const historyAddress = 0x010700
	out := make([]byte, 11)
	out[0] = 0xF0
	out[1] = 0xF0
	out[2] = 0xFF
	out[3] = byte(ActionGetConfig)
	out[4] = 0xFF
	out[5] = 0xFF
	out[6] = ackReserved
	out[7] = s.commModeInterval
	out[8] = byte(historyAddress >> 16)
	out[9] = byte(historyAddress >> 8)
	out[10] = byte(historyAddress)
	return out
}

// buildConfigFrame pushes the desired configuration to the station if it
// differs from what the station last echoed back; returns nil if nothing
// changed (the caller must send no frame in that case).
func (s *Service) buildConfigFrame(buf []byte) []byte {
	changed, cfgBuf := s.stationConfig.Encode()
	if !changed {
		return nil
	}
	out := make([]byte, 125)
	out[0] = buf[0]
	out[1] = buf[1]
	out[2] = buf[2]
	out[3] = byte(ActionSendConfig)
	out[4] = buf[4]
	copy(out[5:], cfgBuf[5:])
	s.pendingConfigWrite = true
	return out
}

// buildTimeFrame packs the local wall-clock time into the 13-byte set-time
// frame, BCD-packed the way the station's own clock display expects.
func buildTimeFrame(buf []byte, cs uint16, now time.Time) []byte {
	bcd := func(v int) byte { return byte(v%10) + 0x10*byte(v/10) }

	out := make([]byte, 13)
	out[0] = buf[0]
	out[1] = buf[1]
	out[2] = buf[2]
	out[3] = byte(ActionSendTime)
	out[4] = byte(cs >> 8)
	out[5] = byte(cs)
	out[6] = bcd(now.Second())
	out[7] = bcd(now.Minute())
	out[8] = bcd(now.Hour())

	// Station day-of-week runs Mon=1..Sun=7; time.Weekday runs Sun=0..Sat=6.
	dow := int(now.Weekday())
	if dow == 0 {
		dow = 7
	}
	day := now.Day()
	month := int(now.Month())
	year := now.Year() - 2000

	out[9] = byte(dow%10) + 0x10*byte(day%10)
	out[10] = byte(day/10) + 0x10*byte(month%10)
	out[11] = byte(month/10) + 0x10*byte(year%10)
	out[12] = byte(year / 10)
	return out
}
