package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSensorMap_EmptyYieldsNil(t *testing.T) {
	assert.Nil(t, parseSensorMap(""))
}

func TestParseSensorMap_ParsesPairsAndSkipsMalformed(t *testing.T) {
	m := parseSensorMap("temp0=indoorTemp, humidity0=indoorHumidity,garbage")
	assert.Equal(t, "indoorTemp", m["temp0"])
	assert.Equal(t, "indoorHumidity", m["humidity0"])
	assert.Len(t, m, 2)
}

func TestDefaults_MatchConfigurationTable(t *testing.T) {
	d := defaults()
	assert.Equal(t, "EU", d.TransceiverFrequency)
	assert.Equal(t, 8, d.CommInterval)
	assert.Equal(t, 1, d.LoggerChannel)
	assert.Equal(t, 51200, d.MaxHistoryRecords)
	assert.Equal(t, 1800, d.BatchSize)
}
