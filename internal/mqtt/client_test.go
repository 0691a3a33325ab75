package mqtt

import (
	"testing"

	"openinverter2mqtt/internal/config"
	"openinverter2mqtt/internal/core/domain"
	"openinverter2mqtt/internal/core/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputNumberCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/number/scan_interval/set"
	r := inputNumberCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "scan_interval", "number_id extract")
}

func TestInputNumberCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/number/scan_interval/state"
	r := inputNumberCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func testClient() *MQTTClient {
	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "openinverter",
		},
	}
	return CreateMQTTClient(cfg, OptsFromConfig(cfg), nil, nil)
}

func TestTopicLayout(t *testing.T) {

	client := testClient()

	assert.Equal(t, "openinverter/bridge/state", client.BridgeStateTopic())
	assert.Equal(t, "openinverter/sensor/input_power/state", client.SensorStateTopic("input_power"))
	assert.Equal(t, "openinverter/number/scan_interval/set", client.InputNumberCommandTopic("scan_interval"))
	assert.Equal(t, "homeassistant", client.HADiscoveryTopic())
}

func TestSensorDiscoveryMessage(t *testing.T) {

	client := testClient()

	dev := domain.Device{Id: "oig_inverter_abcd1234", Name: "inverter-garage", Mac: "AA:BB:CC:DD:EE:FF"}
	sensors := events.GatewaySensors(dev, []string{"InputPower"})
	require.Len(t, sensors, 1)

	msg := GenericSensorToHADiscoveryMessage(client, sensors[0])

	assert.Equal(t, "openinverter/sensor/input_power/state", msg.StateTopic)
	assert.Equal(t, "openinverter/bridge/state", msg.AvTopic)
	assert.Equal(t, "mqtt", msg.Platform)
	assert.Equal(t, []string{"oig_inverter_abcd1234"}, msg.Device.Id)
	assert.Equal(t, [][]string{{"mac", "AA:BB:CC:DD:EE:FF"}}, msg.Device.Connections)
	assert.Equal(t, "homeassistant/sensor/oig_inverter_abcd1234/input_power/config",
		client.HADiscoverySensorTopic(sensors[0]))
}

func TestBridgeStateDiscoveryMessage(t *testing.T) {

	client := testClient()

	bridge := events.BridgeDevice("openinverter")
	msg := GenericSensorToHADiscoveryMessage(client, events.BridgeSensors(bridge)[0])

	assert.Equal(t, "openinverter/bridge/state", msg.StateTopic)
	assert.Equal(t, MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Equal(t, MQTT_PAYLOAD_OFFLINE, msg.PayloadOff)
}

func TestInputNumberDiscoveryMessage(t *testing.T) {

	client := testClient()

	bridge := events.BridgeDevice("openinverter")
	number := events.ScanIntervalNumber(bridge, 60, 10)
	msg := GenericInputNumberToHADiscoveryMessage(client, number)

	assert.Equal(t, "openinverter/number/scan_interval/state", msg.StateTopic)
	assert.Equal(t, "openinverter/number/scan_interval/set", msg.CommandTopic)
	assert.EqualValues(t, 10, msg.Min)
	assert.EqualValues(t, 60, msg.InitialValue)
}
