package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"openinverter2mqtt/internal/core/domain"
	"openinverter2mqtt/pkg/openinverter"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE        = "bridge"
	INPUT_NUMBER_ID_SCAN_INTERVAL = "scan_interval"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL            = "total"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"

	DEVICE_CLASS_BATTERY         = "battery"
	DEVICE_CLASS_CURRENT         = "current"
	DEVICE_CLASS_ENERGY          = "energy"
	DEVICE_CLASS_FREQUENCY       = "frequency"
	DEVICE_CLASS_POWER           = "power"
	DEVICE_CLASS_SIGNAL_STRENGTH = "signal_strength"
	DEVICE_CLASS_TEMPERATURE     = "temperature"
	DEVICE_CLASS_VOLTAGE         = "voltage"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"

	ENTITY_CLASS_DIAGNOSTIC = "diagnostic"
	ENTITY_CLASS_CONFIG     = "config"

	SENSOR_TYPE_SENSOR = "sensor"
	SENSOR_TYPE_BINARY = "binary_sensor"

	INPUT_NUMBER_MODE_BOX = "box"

	UNIT_WATT    = "W"
	UNIT_VOLT    = "V"
	UNIT_AMPERE  = "A"
	UNIT_HERTZ   = "Hz"
	UNIT_KWH     = "kWh"
	UNIT_CELSIUS = "°C"
	UNIT_PERCENT = "%"
	UNIT_DBM     = "dBm"
	UNIT_SECONDS = "s"
	UNIT_BYTES   = "B"
)

// MetricDescriptor ties a gateway JSON field to the entity announced for it:
// the MQTT sensor id and the Home Assistant display metadata. Daily marks the
// cumulative counters the gateway resets at midnight.
type MetricDescriptor struct {
	Metric           string // JSON field name in the /status document
	Id               string // sensor id used in MQTT topics
	Name             string
	Unit             string
	StateClass       string
	DeviceClass      string
	EntityCategory   string
	Icon             string
	EnabledByDefault *bool
	Decimals         uint
	Daily            bool
}

var disabled = boolPtr(false)

// metricTable is the full set of gateway fields the bridge understands.
// Fields missing from a particular device's response are simply never
// announced. Derived from the Growatt-style /status document.
var metricTable = []MetricDescriptor{
	{Metric: "InverterStatus", Id: "inverter_status", Name: "Inverter status code",
		Icon: "mdi:information-outline", Decimals: 0},
	{Metric: "InputPower", Id: "input_power", Name: "Input power",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT,
		Icon: "mdi:solar-power", Decimals: 1},
	{Metric: "PV1Voltage", Id: "pv1_voltage", Name: "PV1 voltage",
		Unit: UNIT_VOLT, DeviceClass: DEVICE_CLASS_VOLTAGE, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "PV1InputCurrent", Id: "pv1_current", Name: "PV1 current",
		Unit: UNIT_AMPERE, DeviceClass: DEVICE_CLASS_CURRENT, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "PV1InputPower", Id: "pv1_power", Name: "PV1 power",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "PV2Voltage", Id: "pv2_voltage", Name: "PV2 voltage",
		Unit: UNIT_VOLT, DeviceClass: DEVICE_CLASS_VOLTAGE, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "PV2InputCurrent", Id: "pv2_current", Name: "PV2 current",
		Unit: UNIT_AMPERE, DeviceClass: DEVICE_CLASS_CURRENT, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "PV2InputPower", Id: "pv2_power", Name: "PV2 power",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "OutputPower", Id: "output_power", Name: "Output power",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT,
		Icon: "mdi:power-plug", Decimals: 1},
	{Metric: "GridFrequency", Id: "grid_frequency", Name: "Grid frequency",
		Unit: UNIT_HERTZ, DeviceClass: DEVICE_CLASS_FREQUENCY, StateClass: STATE_CLASS_MEASUREMENT,
		Icon: "mdi:sine-wave", Decimals: 2},
	{Metric: "L1ThreePhaseGridVoltage", Id: "grid_voltage_l1", Name: "Grid voltage L1",
		Unit: UNIT_VOLT, DeviceClass: DEVICE_CLASS_VOLTAGE, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "L1ThreePhaseGridOutputCurrent", Id: "grid_current_l1", Name: "Grid current L1",
		Unit: UNIT_AMPERE, DeviceClass: DEVICE_CLASS_CURRENT, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "L1ThreePhaseGridOutputPower", Id: "grid_power_l1", Name: "Grid power L1",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "TodayGenerateEnergy", Id: "energy_today", Name: "Energy generated today",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL_INCREASING,
		Icon: "mdi:counter", Decimals: 1, Daily: true},
	{Metric: "TotalGenerateEnergy", Id: "energy_total", Name: "Total energy generated",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL,
		Icon: "mdi:counter", Decimals: 1},
	{Metric: "TWorkTimeTotal", Id: "work_time_total", Name: "Total work time",
		Unit: UNIT_SECONDS, StateClass: STATE_CLASS_TOTAL, Icon: "mdi:timer-sand",
		EnabledByDefault: disabled, Decimals: 0},
	{Metric: "PV1EnergyToday", Id: "pv1_energy_today", Name: "PV1 energy today",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL_INCREASING,
		Decimals: 1, Daily: true},
	{Metric: "PV1EnergyTotal", Id: "pv1_energy_total", Name: "PV1 energy total",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL, Decimals: 1},
	{Metric: "PV2EnergyToday", Id: "pv2_energy_today", Name: "PV2 energy today",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL_INCREASING,
		Decimals: 1, Daily: true},
	{Metric: "PV2EnergyTotal", Id: "pv2_energy_total", Name: "PV2 energy total",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL, Decimals: 1},
	{Metric: "PVEnergyTotal", Id: "pv_energy_total", Name: "PV energy total",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL, Decimals: 1},
	{Metric: "InverterTemperature", Id: "inverter_temperature", Name: "Inverter temperature",
		Unit: UNIT_CELSIUS, DeviceClass: DEVICE_CLASS_TEMPERATURE, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "TemperatureInsideIPM", Id: "ipm_temperature", Name: "IPM temperature",
		Unit: UNIT_CELSIUS, DeviceClass: DEVICE_CLASS_TEMPERATURE, StateClass: STATE_CLASS_MEASUREMENT,
		EnabledByDefault: disabled, Decimals: 1},
	{Metric: "DischargePower", Id: "battery_discharge_power", Name: "Battery discharge power",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT,
		Icon: "mdi:battery-arrow-down", Decimals: 1},
	{Metric: "ChargePower", Id: "battery_charge_power", Name: "Battery charge power",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT,
		Icon: "mdi:battery-arrow-up", Decimals: 1},
	{Metric: "BatteryVoltage", Id: "battery_voltage", Name: "Battery voltage",
		Unit: UNIT_VOLT, DeviceClass: DEVICE_CLASS_VOLTAGE, StateClass: STATE_CLASS_MEASUREMENT,
		Icon: "mdi:battery", Decimals: 1},
	{Metric: "SOC", Id: "battery_soc", Name: "Battery state of charge",
		Unit: UNIT_PERCENT, DeviceClass: DEVICE_CLASS_BATTERY, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 0},
	{Metric: "BatteryTemperature", Id: "battery_temperature", Name: "Battery temperature",
		Unit: UNIT_CELSIUS, DeviceClass: DEVICE_CLASS_TEMPERATURE, StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Metric: "BatteryState", Id: "battery_state", Name: "Battery state code",
		Icon: "mdi:battery-heart-variant", Decimals: 0},
	{Metric: "ACPowerToUser", Id: "grid_import_power", Name: "Grid import power",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT,
		Icon: "mdi:transmission-tower-import", Decimals: 1},
	{Metric: "ACPowerToGrid", Id: "grid_export_power", Name: "Grid export power",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT,
		Icon: "mdi:transmission-tower-export", Decimals: 1},
	{Metric: "INVPowerToLocalLoad", Id: "load_power", Name: "Power to local load",
		Unit: UNIT_WATT, DeviceClass: DEVICE_CLASS_POWER, StateClass: STATE_CLASS_MEASUREMENT,
		Icon: "mdi:home-lightning-bolt", Decimals: 1},
	{Metric: "EnergyToUserToday", Id: "grid_import_energy_today", Name: "Grid import energy today",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL_INCREASING,
		Decimals: 1, Daily: true},
	{Metric: "EnergyToUserTotal", Id: "grid_import_energy_total", Name: "Grid import energy total",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL, Decimals: 1},
	{Metric: "EnergyToGridToday", Id: "grid_export_energy_today", Name: "Grid export energy today",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL_INCREASING,
		Decimals: 1, Daily: true},
	{Metric: "EnergyToGridTotal", Id: "grid_export_energy_total", Name: "Grid export energy total",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL, Decimals: 1},
	{Metric: "DischargeEnergyToday", Id: "battery_discharge_energy_today", Name: "Battery discharge today",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL_INCREASING,
		Decimals: 1, Daily: true},
	{Metric: "DischargeEnergyTotal", Id: "battery_discharge_energy_total", Name: "Total battery discharge",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL, Decimals: 1},
	{Metric: "ChargeEnergyToday", Id: "battery_charge_energy_today", Name: "Battery charge today",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL_INCREASING,
		Decimals: 1, Daily: true},
	{Metric: "ChargeEnergyTotal", Id: "battery_charge_energy_total", Name: "Total battery charge",
		Unit: UNIT_KWH, DeviceClass: DEVICE_CLASS_ENERGY, StateClass: STATE_CLASS_TOTAL, Decimals: 1},
	{Metric: "Uptime", Id: "uptime", Name: "Device uptime",
		Unit: UNIT_SECONDS, StateClass: STATE_CLASS_TOTAL_INCREASING, Icon: "mdi:timer-outline",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC, EnabledByDefault: disabled, Decimals: 0},
	{Metric: "WifiRSSI", Id: "wifi_rssi", Name: "WiFi RSSI",
		Unit: UNIT_DBM, DeviceClass: DEVICE_CLASS_SIGNAL_STRENGTH, StateClass: STATE_CLASS_MEASUREMENT,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC, Decimals: 0},
	{Metric: "HeapFree", Id: "heap_free", Name: "Free heap memory",
		Unit: UNIT_BYTES, StateClass: STATE_CLASS_MEASUREMENT, Icon: "mdi:memory",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC, EnabledByDefault: disabled, Decimals: 0},
}

var metricIndex = buildMetricIndex()

func buildMetricIndex() map[string]*MetricDescriptor {
	index := make(map[string]*MetricDescriptor, len(metricTable))
	for i := range metricTable {
		index[metricTable[i].Metric] = &metricTable[i]
	}
	return index
}

func LookupMetric(metric string) *MetricDescriptor {
	return metricIndex[metric]
}

// DailyMetrics lists the cumulative counters that reset at local midnight.
func DailyMetrics() []string {
	var out []string
	for i := range metricTable {
		if metricTable[i].Daily {
			out = append(out, metricTable[i].Metric)
		}
	}
	return out
}

func KnownMetrics() []string {
	out := make([]string, 0, len(metricTable))
	for i := range metricTable {
		out = append(out, metricTable[i].Metric)
	}
	return out
}

func BridgeDevice(baseTopic string) domain.Device {
	return domain.Device{
		Id:           fmt.Sprintf("openinverter_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "openinverter2mqtt",
		Model:        "Open Inverter Bridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Open Inverter Bridge %s", md5HashShort(baseTopic)),
	}
}

func GatewayDevice(info *openinverter.DeviceInfo, ipAddress string) domain.Device {
	id := info.Mac
	if id == "" {
		id = ipAddress
	}
	name := info.Hostname
	if name == "" {
		name = fmt.Sprintf("Open Inverter %s", ipAddress)
	}
	return domain.Device{
		Id:           fmt.Sprintf("oig_inverter_%s", md5HashShort(id)),
		Manufacturer: "Growatt",
		Model:        "Open Inverter Gateway",
		Name:         name,
		Mac:          info.Mac,
		ConfigURL:    fmt.Sprintf("http://%s", ipAddress),
	}
}

func IdDevice(device domain.Device) domain.Device {
	return domain.Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// BridgeSensors are the entities attached to the bridge itself.
func BridgeSensors(bridgeDevice domain.Device) []domain.GenericSensor {
	return []domain.GenericSensor{
		{
			Device:      bridgeDevice,
			Id:          SENSOR_ID_BRIDGE_STATE,
			SensorType:  SENSOR_TYPE_BINARY,
			Name:        "Bridge state",
			DeviceClass: DEVICE_CLASS_CONNECTIVITY,
			UniqueId:    uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
		},
	}
}

// GatewaySensors builds the sensor list for the metrics actually present in
// the device's response.
func GatewaySensors(gatewayDevice domain.Device, available []string) []domain.GenericSensor {
	var sensors []domain.GenericSensor
	for _, metric := range available {
		desc := LookupMetric(metric)
		if desc == nil {
			continue
		}
		sensors = append(sensors, domain.GenericSensor{
			Device:            gatewayDevice,
			Id:                desc.Id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              desc.Name,
			UnitOfMeasurement: desc.Unit,
			StateClass:        desc.StateClass,
			DeviceClass:       desc.DeviceClass,
			EntityCategory:    desc.EntityCategory,
			EnabledByDefault:  desc.EnabledByDefault,
			Icon:              desc.Icon,
			UniqueId:          uniqueId(gatewayDevice.Id, desc.Id),
		})
	}
	return sensors
}

// ScanIntervalNumber is the options surface: a Home Assistant number entity
// that reconfigures the poll interval at runtime.
func ScanIntervalNumber(bridgeDevice domain.Device, initialSeconds, minSeconds float64) domain.GenericInputNumber {
	return domain.GenericInputNumber{
		Device:       bridgeDevice,
		Id:           INPUT_NUMBER_ID_SCAN_INTERVAL,
		Name:         "Scan interval",
		UniqueId:     uniqueId(bridgeDevice.Id, INPUT_NUMBER_ID_SCAN_INTERVAL),
		Icon:         "mdi:timer-refresh-outline",
		Min:          minSeconds,
		Max:          3600,
		Step:         1,
		Mode:         INPUT_NUMBER_MODE_BOX,
		InitialValue: initialSeconds,
	}
}

func uniqueId(deviceId, sensorId string) string {
	return fmt.Sprintf("%s_%s", deviceId, sensorId)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	return md5Hash(text)[0:8]
}

func boolPtr(b bool) *bool {
	return &b
}
