package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klimadriver/internal/codec"
)

func TestDecodeCurrentData_SentinelNeverLeaksAsRealTimestamp(t *testing.T) {
	buf := make([]byte, 235)
	for i := range buf {
		buf[i] = 0xAA // all-error nibbles -> every temp/humidity decodes NP
	}
	buf[4] = 0x55

	cd := DecodeCurrentData(buf, time.Unix(1000, 0))
	require.Equal(t, 0x55, cd.SignalQuality)
	for x := 0; x < 9; x++ {
		ch := cd.Channels[x]
		assert.Equal(t, codec.TemperatureNP, ch.Temp)
		assert.True(t, ch.TempMaxAt.IsZero(), "NP reading must not carry a decoded timestamp")
		assert.True(t, ch.TempMinAt.IsZero())
	}
}

func TestCurrentData_BatteryOK(t *testing.T) {
	cd := CurrentData{}
	cd.AlarmData[1] = 0x80 // channel 0 bit set -> good
	cd.AlarmData[0] = 0x01 // channel 1 bit set -> alarm triggered -> not ok

	assert.True(t, cd.BatteryOK(0))
	assert.False(t, cd.BatteryOK(1))
	assert.True(t, cd.BatteryOK(2))
	assert.False(t, cd.BatteryOK(9))
}
