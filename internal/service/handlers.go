package service

import (
	"time"

	"klimadriver/internal/historycache"
	"klimadriver/internal/laststat"
	"klimadriver/internal/records"
)

// GenerateResponse decodes one inbound frame and returns the frame to send
// back, or an error. DataWrittenError and UnknownDeviceIDError are expected
// outcomes the RF loop switches back to receive mode on, not failures to
// log as such.
func (s *Service) GenerateResponse(buf []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(buf) == 0 {
		return nil, BadResponseError{}
	}

	bufferID := uint16(buf[0])<<8 | uint16(buf[1])
	loggerID := buf[2]
	respType := responseType(buf[3] & 0xF0)

	if bufferID == pairingBufferIDLow || bufferID == pairingBufferIDHigh {
		return s.buildACKFrame(buf, ActionGetConfig, 0xFFFF, intPtr(-1)), nil
	}

	if bufferID != s.identity.DeviceID {
		return nil, UnknownDeviceIDError{BufferID: bufferID}
	}
	s.registeredDeviceID = &bufferID
	_ = loggerID

	switch respType {
	case responseDataWritten:
		if len(buf) != 0x07 {
			return nil, BadResponseError{Length: len(buf), ResponseType: byte(respType)}
		}
		if s.pendingConfigWrite {
			s.stationConfig.ClearResetHiLo()
			s.pendingConfigWrite = false
		}
		if err := s.dongle.SetRX(); err != nil {
			return nil, err
		}
		return nil, DataWrittenError{}

	case responseGetConfig:
		if len(buf) != 0x7D {
			return nil, BadResponseError{Length: len(buf), ResponseType: byte(respType)}
		}
		return s.handleConfig(buf), nil

	case responseGetCurrent:
		if len(buf) != 0xE5 {
			return nil, BadResponseError{Length: len(buf), ResponseType: byte(respType)}
		}
		return s.handleCurrentData(buf), nil

	case responseGetHistory:
		if len(buf) != 0xB5 {
			return nil, BadResponseError{Length: len(buf), ResponseType: byte(respType)}
		}
		return s.handleHistoryData(buf), nil

	case responseRequest:
		if len(buf) != 0x07 {
			return nil, BadResponseError{Length: len(buf), ResponseType: byte(respType)}
		}
		out := s.handleNextAction(buf)
		if err := s.dongle.SetState(0); err != nil {
			return nil, err
		}
		return out, nil

	default:
		return nil, BadResponseError{Length: len(buf), ResponseType: byte(respType)}
	}
}

func intPtr(v int) *int { return &v }

func (s *Service) handleConfig(buf []byte) []byte {
	s.stationConfig = records.DecodeStationConfig(buf)
	now := time.Now()
	s.stat.Update(laststat.Update{
		SeenTS: now, HasLinkQuality: true, LinkQuality: int(buf[4] & 0x7f),
		HasConfigTS: true, ConfigTS: now,
	})
	cs := uint16(buf[124]) | uint16(buf[123])<<8
	s.setSleep(s.firstSleep, 10*time.Millisecond)
	action := ActionGetHistory
	s.lastCommand = &action
	return s.buildACKFrame(buf, action, cs, nil)
}

func (s *Service) handleCurrentData(buf []byte) []byte {
	now := time.Now()
	last := s.stat.Get()
	if time.Since(last.LastWeatherTS) >= time.Duration(s.commModeInterval)*time.Second {
		s.current = records.DecodeCurrentData(buf, now)
	}
	s.stat.Update(laststat.Update{
		SeenTS: now, HasLinkQuality: true, LinkQuality: int(buf[4] & 0x7f),
		HasWeatherTS: true, WeatherTS: now,
	})

	cs := uint16(buf[6]) | uint16(buf[5])<<8
	if s.labels != nil {
		for ch, label := range s.labels {
			s.stationConfig.SetLabel(ch, label)
		}
	}
	changed, _ := s.stationConfig.Encode()
	inBufCS := s.stationConfig.InBufCS

	var action Action
	switch {
	case inBufCS == 0 || inBufCS != cs:
		action = ActionGetConfig
	case changed:
		action = ActionReqSetConfig
	default:
		action = ActionGetHistory
	}
	s.lastCommand = &action
	return s.buildACKFrame(buf, action, cs, nil)
}

// historyClockThreshold1900 is the sentinel decoded timestamp a station
// reports in a never-written history slot.
var historyClockThreshold1900 = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

func (s *Service) handleHistoryData(buf []byte) []byte {
	now := time.Now()
	s.stat.Update(laststat.Update{
		SeenTS: now, HasLinkQuality: true, LinkQuality: int(buf[4] & 0x7f),
		HasHistoryTS: true, HistoryTS: now,
	})

	data := records.DecodeHistoryData(buf)

	latestIndex := historycache.AddrToIndex(int(data.LatestAddr))
	thisIndex := historycache.AddrToIndex(int(data.ThisAddr))

	tsPos1 := data.Positions[0].Sample.Timestamp
	tsPos6 := data.Positions[5].Sample.Timestamp
	if !data.Positions[0].IsAlarm && !data.Positions[5].IsAlarm {
		if tsPos1.Equal(tsPos6) && !tsPos1.Equal(historyClockThreshold1900) {
			diff := now.Sub(tsPos1)
			if diff < 0 {
				diff = -diff
			}
			if diff > 300*time.Second {
				s.stationConfig.SetAlarmClockOffset()
			} else {
				s.stationConfig.ResetAlarmClockOffset()
			}
		}
	}

	thisIndex = historycache.FirstFrameIndexQuirk(thisIndex, latestIndex)
	nrec := historycache.GetIndex(latestIndex - thisIndex)

	s.stat.Update(laststat.Update{
		HasHistoryIndex: true, HistoryIndex: thisIndex,
		HasLatestHistoryIndex: true, LatestHistoryIndex: latestIndex,
	})

	var nextIndex *int
	if s.lastCommand != nil && *s.lastCommand == ActionGetHistory {
		if _, started := s.cache.NextIndex(); !started {
			idx, _ := s.cache.PlanFirstRequest(now, latestIndex, nrec, 0)
			nextIndex = &idx
		} else {
			for _, pos := range data.Positions {
				if pos.IsAlarm {
					continue
				}
				s.cache.Offer(now, thisIndex, pos.Sample.Timestamp, pos.Sample)
			}
			idx, _ := s.cache.NextIndex()
			nextIndex = &idx
		}
	}

	cs := uint16(buf[6]) | uint16(buf[5])<<8
	s.setSleep(s.firstSleep, 10*time.Millisecond)
	action := ActionGetHistory
	s.lastCommand = &action
	return s.buildACKFrame(buf, action, cs, nextIndex)
}

func (s *Service) handleNextAction(buf []byte) []byte {
	now := time.Now()
	s.stat.Update(laststat.Update{SeenTS: now, HasLinkQuality: true, LinkQuality: int(buf[4] & 0x7f)})
	cs := uint16(buf[6]) | uint16(buf[5])<<8
	resp := buf[3]

	switch resp {
	case requestReadHistory:
		s.setSleep(75*time.Millisecond, 5*time.Millisecond)
		return buf
	case requestFirstConfig:
		s.setSleep(75*time.Millisecond, 5*time.Millisecond)
		return s.buildFirstConfigFrame()
	case requestSetConfig:
		s.setSleep(75*time.Millisecond, 5*time.Millisecond)
		return s.buildConfigFrame(buf)
	case requestSetTime:
		s.setSleep(75*time.Millisecond, 5*time.Millisecond)
		return buildTimeFrame(buf, cs, now)
	default:
		s.setSleep(s.firstSleep, 10*time.Millisecond)
		action := ActionGetHistory
		s.lastCommand = &action
		return s.buildACKFrame(buf, action, cs, nil)
	}
}
