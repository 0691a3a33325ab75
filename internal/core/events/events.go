package events

import (
	"openinverter2mqtt/internal/core/domain"
)

// ReadingSetToUpdateEvents maps one exposed reading set to the per-sensor
// update events the MQTT actor publishes. Fields without a descriptor are
// skipped.
func ReadingSetToUpdateEvents(readings domain.ReadingSet) []domain.SensorUpdateEvent {
	var out []domain.SensorUpdateEvent
	for metric, value := range readings {
		desc := LookupMetric(metric)
		if desc == nil {
			continue
		}
		out = append(out, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: desc.Id},
			Value:                  value,
			Decimals:               desc.Decimals,
		})
	}
	return out
}

func ScanIntervalUpdateEvent(seconds uint) domain.InputNumberSensorUpdateEvent {
	return domain.InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: INPUT_NUMBER_ID_SCAN_INTERVAL},
		Value:                  float64(seconds),
		Decimals:               0,
	}
}

func BridgeStateEvent(online bool) domain.BridgeStateUpdateEvent {
	return domain.BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_BRIDGE_STATE},
		Value:                  online,
	}
}
