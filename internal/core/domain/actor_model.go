package domain

import "openinverter2mqtt/pkg/openinverter"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_GATEWAY      = "gateway"
	ACTOR_ID_TELEMETRY    = "telemetry"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetGatewayStatusRequest struct {
	ActorRequestMixIn
}

type GetGatewayStatusResponse struct {
	ActorResponseMixIn
	Status *openinverter.Status
}

type GetGatewayInfoRequest struct {
	ActorRequestMixIn
}

type GetGatewayInfoResponse struct {
	ActorResponseMixIn
	Info *openinverter.DeviceInfo
}

// GetTelemetrySnapshotRequest asks the telemetry actor for the reading set
// currently exposed to entities.
type GetTelemetrySnapshotRequest struct {
	ActorRequestMixIn
}

type GetTelemetrySnapshotResponse struct {
	ActorResponseMixIn
	Readings ReadingSet
	Date     Date
	HasData  bool
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	InputNumbers []GenericInputNumber
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
