package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMQTTTopic(t *testing.T) {

	topic, err := CheckMQTTTopic("OpenInverter_1")
	require.NoError(t, err)
	assert.Equal(t, "openinverter_1", topic)

	_, err = CheckMQTTTopic("bad/topic")
	assert.Error(t, err)

	_, err = CheckMQTTTopic("")
	assert.Error(t, err)
}

func TestCheckIPAddress(t *testing.T) {

	ip, err := CheckIPAddress(" 192.168.1.50 ")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50", ip)

	_, err = CheckIPAddress("inverter.local")
	assert.Error(t, err)

	_, err = CheckIPAddress("999.1.1.1")
	assert.Error(t, err)
}

func TestCheckScanInterval(t *testing.T) {

	seconds, err := CheckScanInterval(60)
	require.NoError(t, err)
	assert.EqualValues(t, 60, seconds)

	_, err = CheckScanInterval(5)
	assert.Error(t, err)
}
