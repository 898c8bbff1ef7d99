package transceiver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSBTracer_ObserveAccumulatesAverageAndMax(t *testing.T) {
	tr := newDisabledTracer()
	tr.Observe(0x09, 10*time.Millisecond)
	tr.Observe(0x09, 30*time.Millisecond)
	tr.Observe(0x01, 5*time.Millisecond)

	snap := tr.Snapshot()
	byReq := map[uint8]LatencySnapshot{}
	for _, s := range snap {
		byReq[s.Request] = s
	}

	require.Contains(t, byReq, uint8(0x09))
	assert.Equal(t, 2, byReq[0x09].Count)
	assert.Equal(t, 20*time.Millisecond, byReq[0x09].Average)
	assert.Equal(t, 30*time.Millisecond, byReq[0x09].Max)
	assert.Equal(t, 1, byReq[0x01].Count)
}

func TestUSBTracer_NilSafe(t *testing.T) {
	var tr *USBTracer
	tr.Observe(0x09, time.Second)
	assert.Nil(t, tr.Snapshot())
	assert.False(t, tr.Enabled())
	tr.Close()
}
