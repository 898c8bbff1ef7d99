package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klimadriver/internal/codec"
	"klimadriver/internal/historycache"
	"klimadriver/internal/laststat"
)

type fakeDongle struct {
	state      [2]byte
	frame      []byte
	setFrames  [][]byte
	txCount    int
	rxCount    int
	stateCount int
}

func (f *fakeDongle) SetTX() error                         { f.txCount++; return nil }
func (f *fakeDongle) SetRX() error                         { f.rxCount++; return nil }
func (f *fakeDongle) GetState() ([2]byte, error)           { return f.state, nil }
func (f *fakeDongle) SetFrame(data []byte) error           { f.setFrames = append(f.setFrames, data); return nil }
func (f *fakeDongle) GetFrame() ([]byte, error)            { return f.frame, nil }
func (f *fakeDongle) Execute(command byte) error           { return nil }
func (f *fakeDongle) SetPreamblePattern(pattern byte) error { return nil }
func (f *fakeDongle) SetState(state byte) error            { f.stateCount++; return nil }

func newTestService() (*Service, *fakeDongle) {
	dongle := &fakeDongle{}
	var stat laststat.Stat
	cache := historycache.New(1800)
	s := New(dongle, &stat, cache, Options{CommModeInterval: 8, LoggerChannel: 1})
	s.SetIdentity(Identity{DeviceID: 0x1234, SerialNumber: "01020304050607"})
	return s, dongle
}

func TestGenerateResponse_PairingFrameAsksForConfig(t *testing.T) {
	s, _ := newTestService()
	buf := []byte{0xF0, 0xF0, 0xFF, 0x50, 0, 0, 0}
	out, err := s.GenerateResponse(buf)
	require.NoError(t, err)
	require.Len(t, out, 11)
	assert.Equal(t, byte(ActionGetConfig), out[3]&0x0F)
	assert.Equal(t, byte(0xFF), out[4])
	assert.Equal(t, byte(0xFF), out[5])
}

func TestGenerateResponse_UnknownDeviceID(t *testing.T) {
	s, _ := newTestService()
	buf := make([]byte, 7)
	buf[0], buf[1] = 0x99, 0x99
	buf[3] = 0x50
	_, err := s.GenerateResponse(buf)
	require.Error(t, err)
	var udErr UnknownDeviceIDError
	require.ErrorAs(t, err, &udErr)
}

func TestGenerateResponse_DataWrittenSetsRX(t *testing.T) {
	s, dongle := newTestService()
	buf := make([]byte, 7)
	buf[0], buf[1] = 0x12, 0x34
	buf[3] = byte(responseDataWritten)
	_, err := s.GenerateResponse(buf)
	var dwErr DataWrittenError
	require.ErrorAs(t, err, &dwErr)
	assert.Equal(t, 1, dongle.rxCount)
}

func TestGenerateResponse_BadLengthForResponseType(t *testing.T) {
	s, _ := newTestService()
	buf := make([]byte, 10)
	buf[0], buf[1] = 0x12, 0x34
	buf[3] = byte(responseGetConfig)
	_, err := s.GenerateResponse(buf)
	require.Error(t, err)
	var brErr BadResponseError
	require.ErrorAs(t, err, &brErr)
}

func TestHandleCurrentData_RequestsConfigWhenChecksumUnset(t *testing.T) {
	s, _ := newTestService()
	buf := make([]byte, 229)
	buf[0], buf[1] = 0x12, 0x34
	buf[4] = 50
	out := s.handleCurrentData(buf)
	assert.Equal(t, byte(ActionGetConfig), out[3]&0x0F)
}

func TestBuildTimeFrame_EncodesBCDFields(t *testing.T) {
	buf := make([]byte, 7)
	buf[0], buf[1], buf[2] = 0x12, 0x34, 0x00
	now := time.Date(2026, time.March, 5, 14, 9, 7, 0, time.UTC)
	out := buildTimeFrame(buf, 0xABCD, now)
	require.Len(t, out, 13)
	assert.Equal(t, byte(ActionSendTime), out[3])
	assert.Equal(t, byte(0xAB), out[4])
	assert.Equal(t, byte(0xCD), out[5])
	assert.Equal(t, byte(0x07), out[6]) // seconds
	assert.Equal(t, byte(0x09), out[7]) // minutes
	assert.Equal(t, byte(0x14), out[8]) // hours
}

func TestBuildACKFrame_UnknownHistoryIndexUsesAllFF(t *testing.T) {
	s, _ := newTestService()
	buf := []byte{0x12, 0x34, 0x00, 0, 0, 0, 0}
	out := s.buildACKFrame(buf, ActionGetHistory, 0x0102, nil)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, out[8:11])
}

func TestBuildACKFrame_FirstConfigPresetsDeviceAddress(t *testing.T) {
	s, _ := newTestService()
	buf := []byte{0xF0, 0xF0, 0xFF, 0, 0, 0, 0}
	out := s.buildACKFrame(buf, ActionGetConfig, 0xFFFF, intPtr(-1))
	want := (uint32(0x1234) << 8) + 0
	assert.Equal(t, byte(want>>16), out[8])
	assert.Equal(t, byte(want>>8), out[9])
	assert.Equal(t, byte(want), out[10])
}

func TestBuildACKFrame_MorphsStaleHistoryToGetCurrent(t *testing.T) {
	s, _ := newTestService()
	getHistory := ActionGetHistory
	s.lastCommand = &getHistory
	s.stat.Update(laststat.Update{HasWeatherTS: true, WeatherTS: time.Now().Add(-30 * time.Second)})

	buf := []byte{0x12, 0x34, 0x00, 0, 0, 0, 0}
	out := s.buildACKFrame(buf, ActionGetHistory, 0x0102, nil)
	assert.Equal(t, byte(ActionGetCurrent), out[3]&0x0F)
}

func TestBuildACKFrame_FreshWeatherKeepsGetHistory(t *testing.T) {
	s, _ := newTestService()
	getHistory := ActionGetHistory
	s.lastCommand = &getHistory
	s.stat.Update(laststat.Update{HasWeatherTS: true, WeatherTS: time.Now()})

	buf := []byte{0x12, 0x34, 0x00, 0, 0, 0, 0}
	out := s.buildACKFrame(buf, ActionGetHistory, 0x0102, nil)
	assert.Equal(t, byte(ActionGetHistory), out[3]&0x0F)
}

func TestBuildACKFrame_FirstHistoryOfSessionSkipsMorph(t *testing.T) {
	s, _ := newTestService()
	getHistory := ActionGetHistory
	s.lastCommand = &getHistory
	s.stat.Update(laststat.Update{HasWeatherTS: true, WeatherTS: time.Now().Add(-time.Hour)})

	buf := []byte{0xF0, 0xF0, 0x00, 0, 0, 0, 0}
	out := s.buildACKFrame(buf, ActionGetHistory, 0x0102, nil)
	assert.Equal(t, byte(ActionGetHistory), out[3]&0x0F)
}

// historyPos1DtOffset and historyPos6DtOffset mirror internal/records'
// unexported historyBufmap dt offsets for positions 1 and 6, the only two
// handleHistoryData's clock-drift check reads.
const (
	historyPos1DtOffset = 176
	historyPos6DtOffset = 36
)

func setHistoryDateTime(buf []byte, offset int, ts time.Time) {
	ts = ts.UTC()
	codec.Parse0(ts.Year()-2000, buf, offset+0, true, 2)
	codec.Parse0(int(ts.Month()), buf, offset+1, true, 2)
	codec.Parse0(ts.Day(), buf, offset+2, true, 2)
	codec.Parse0(ts.Hour(), buf, offset+3, true, 2)
	codec.Parse0(ts.Minute(), buf, offset+4, true, 2)
}

func buildHistoryFrame(t *testing.T, pos1, pos6 time.Time) []byte {
	t.Helper()
	buf := make([]byte, 181)
	buf[0], buf[1] = 0x12, 0x34
	setHistoryDateTime(buf, historyPos1DtOffset, pos1)
	setHistoryDateTime(buf, historyPos6DtOffset, pos6)
	return buf
}

func TestHandleHistoryData_ClockDriftArmsAlarm(t *testing.T) {
	s, _ := newTestService()
	stale := time.Now().Add(-2 * time.Hour).Truncate(time.Minute)
	buf := buildHistoryFrame(t, stale, stale)

	s.handleHistoryData(buf)

	assert.Equal(t, 99.0, s.stationConfig.HumidityMin[0])
	assert.NotZero(t, s.stationConfig.AlarmSet[4]&0x2)
}

func TestHandleHistoryData_InSyncClockResetsAlarm(t *testing.T) {
	s, _ := newTestService()
	s.stationConfig.SetAlarmClockOffset()
	fresh := time.Now().UTC().Truncate(time.Minute)
	buf := buildHistoryFrame(t, fresh, fresh)

	s.handleHistoryData(buf)

	assert.Equal(t, 20.0, s.stationConfig.HumidityMin[0])
	assert.Zero(t, s.stationConfig.AlarmSet[4]&0x2)
}

func TestGenerateResponse_DataWrittenClearsResetHiLoAfterConfigPush(t *testing.T) {
	s, _ := newTestService()
	s.stationConfig.ResetHiLo = 1

	requestBuf := make([]byte, 7)
	requestBuf[0], requestBuf[1] = 0x12, 0x34
	requestBuf[3] = requestSetConfig
	out := s.handleNextAction(requestBuf)
	require.NotNil(t, out, "Encode() must report changed since ResetHiLo differs from the zero InBufCS checksum")
	require.True(t, s.pendingConfigWrite)

	ackBuf := make([]byte, 7)
	ackBuf[0], ackBuf[1] = 0x12, 0x34
	ackBuf[3] = byte(responseDataWritten)
	_, err := s.GenerateResponse(ackBuf)

	var written DataWrittenError
	require.ErrorAs(t, err, &written)
	assert.Equal(t, byte(0), s.stationConfig.ResetHiLo)
	assert.False(t, s.pendingConfigWrite)
}

func TestGenerateResponse_DataWrittenWithoutPendingConfigLeavesResetHiLo(t *testing.T) {
	s, _ := newTestService()
	s.stationConfig.ResetHiLo = 1

	buf := make([]byte, 7)
	buf[0], buf[1] = 0x12, 0x34
	buf[3] = byte(responseDataWritten)
	_, err := s.GenerateResponse(buf)

	var written DataWrittenError
	require.ErrorAs(t, err, &written)
	assert.Equal(t, byte(1), s.stationConfig.ResetHiLo)
}
