package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHistoryData_AllAlarmDiscriminator(t *testing.T) {
	buf := make([]byte, 181)
	for _, am := range historyBufmapAlarm {
		buf[am[0]] = alarmDiscriminator
	}
	buf[7], buf[8], buf[9] = 0x07, 0x00, 0x00
	buf[10], buf[11], buf[12] = 0x07, 0x00, 0x00

	hd := DecodeHistoryData(buf)
	require.Equal(t, 0x070000, hd.LatestAddr)
	require.Equal(t, 0x070000, hd.ThisAddr)
	for _, p := range hd.Positions {
		assert.True(t, p.IsAlarm)
	}
}

func TestDecodeHistoryData_SampleDiscriminatorWhenNotEE(t *testing.T) {
	buf := make([]byte, 181)
	hd := DecodeHistoryData(buf)
	for _, p := range hd.Positions {
		assert.False(t, p.IsAlarm)
	}
}
