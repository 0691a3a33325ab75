package events

import (
	"testing"

	"openinverter2mqtt/internal/core/domain"
	"openinverter2mqtt/pkg/openinverter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricTableIdsAreUnique(t *testing.T) {

	byMetric := map[string]bool{}
	byId := map[string]bool{}
	for _, d := range metricTable {
		assert.Falsef(t, byMetric[d.Metric], "duplicate metric %s", d.Metric)
		assert.Falsef(t, byId[d.Id], "duplicate sensor id %s", d.Id)
		byMetric[d.Metric] = true
		byId[d.Id] = true
	}
}

func TestDailyMetrics(t *testing.T) {

	daily := DailyMetrics()

	assert.Contains(t, daily, "TodayGenerateEnergy")
	assert.Contains(t, daily, "EnergyToGridToday")
	assert.Contains(t, daily, "ChargeEnergyToday")
	assert.NotContains(t, daily, "TotalGenerateEnergy")
	assert.NotContains(t, daily, "InputPower")

	for _, m := range daily {
		require.NotNil(t, LookupMetric(m))
		assert.True(t, LookupMetric(m).Daily)
	}
}

func TestStatusCodeMetrics(t *testing.T) {

	for _, metric := range []string{"InverterStatus", "BatteryState"} {
		desc := LookupMetric(metric)
		require.NotNilf(t, desc, "missing descriptor for %s", metric)
		assert.Empty(t, desc.Unit)
		assert.EqualValues(t, 0, desc.Decimals)
		assert.False(t, desc.Daily)
	}
}

func TestReadingSetToUpdateEvents(t *testing.T) {

	readings := domain.ReadingSet{
		"InputPower":          1520.5,
		"TodayGenerateEnergy": 3.2,
		"BogusField":          1,
	}

	events := ReadingSetToUpdateEvents(readings)
	require.Len(t, events, 2)

	byId := map[string]domain.FloatSensorUpdateEvent{}
	for _, e := range events {
		fe, ok := e.(domain.FloatSensorUpdateEvent)
		require.True(t, ok)
		byId[fe.SensorId()] = fe
	}

	assert.EqualValues(t, 1520.5, byId["input_power"].Value)
	assert.EqualValues(t, 3.2, byId["energy_today"].Value)
}

func TestGatewaySensorsFiltersUnknownMetrics(t *testing.T) {

	dev := domain.Device{Id: "oig_inverter_abcd1234"}
	sensors := GatewaySensors(dev, []string{"InputPower", "SomethingNew", "SOC"})

	require.Len(t, sensors, 2)
	assert.Equal(t, "input_power", sensors[0].Id)
	assert.Equal(t, "oig_inverter_abcd1234_input_power", sensors[0].UniqueId)
	assert.Equal(t, "battery_soc", sensors[1].Id)
	assert.Equal(t, STATE_CLASS_MEASUREMENT, sensors[1].StateClass)
}

func TestGatewayDeviceIdentity(t *testing.T) {

	info := &openinverter.DeviceInfo{Hostname: "inverter-garage", Mac: "AA:BB:CC:DD:EE:FF"}
	dev := GatewayDevice(info, "192.168.1.50")

	assert.Equal(t, "inverter-garage", dev.Name)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", dev.Mac)
	assert.Equal(t, "http://192.168.1.50", dev.ConfigURL)

	// without identity fields the IP stands in
	anon := GatewayDevice(&openinverter.DeviceInfo{}, "192.168.1.50")
	assert.Equal(t, "Open Inverter 192.168.1.50", anon.Name)
	assert.NotEqual(t, dev.Id, anon.Id)
}

func TestScanIntervalNumber(t *testing.T) {

	dev := BridgeDevice("openinverter")
	number := ScanIntervalNumber(dev, 60, 10)

	assert.Equal(t, INPUT_NUMBER_ID_SCAN_INTERVAL, number.Id)
	assert.EqualValues(t, 60, number.InitialValue)
	assert.EqualValues(t, 10, number.Min)
	assert.Equal(t, INPUT_NUMBER_MODE_BOX, number.Mode)
}
