package actor

import (
	"errors"
	"fmt"
	"time"

	"openinverter2mqtt/internal/config"
	"openinverter2mqtt/internal/core/domain"
	"openinverter2mqtt/internal/core/events"
	"openinverter2mqtt/internal/util/actorutil"
	"openinverter2mqtt/pkg/openinverter"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor announces the bridge and gateway entities once at startup.
// The sensor list follows what the device actually reports: a live status if
// the gateway is reachable, the cached reading set otherwise.
type HADiscoveryActor struct {
	config              *config.Config
	behavior            actor.Behavior
	stash               *actorutil.Stash
	gatewayActor        *actor.PID
	mqttActor           *actor.PID
	telemetryActor      *actor.PID
	gatewayActorHealthy bool
	mqttActorHealthy    bool
	healthyRecv         int

	info         *openinverter.DeviceInfo
	scanInterval uint
	prepRecv     int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, gatewayActor *actor.PID, mqttActor *actor.PID,
	telemetryActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:         config,
		gatewayActor:   gatewayActor,
		mqttActor:      mqttActor,
		telemetryActor: telemetryActor,
		behavior:       actor.NewBehavior(),
		stash:          &actorutil.Stash{},
		logger:         actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// check gateway and MQTT actor healthy
		state.healthyRecv = 0
		state.gatewayActorHealthy = false
		state.mqttActorHealthy = false
		// gateway actor request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.gatewayActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_GATEWAY,
				Healthy: false,
			}
		})
		// MQTT actor request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_GATEWAY:
				state.gatewayActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.gatewayActorHealthy && state.mqttActorHealthy {
				// collect gateway identity and the effective scan interval
				state.prepRecv = 0
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.gatewayActor, domain.GetGatewayInfoRequest{}, 2*time.Second), func(err error) any {
					return domain.GetGatewayInfoResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.telemetryActor, domain.GetScanIntervalRequest{}, 2*time.Second), func(err error) any {
					return domain.GetScanIntervalResponse{}
				})
				state.behavior.Become(state.WaitingPrepReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Gateway Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingPrepReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetGatewayInfoResponse:
		state.logger.Debug("hadiscovery@prep: GetGatewayInfoResponse")
		state.info = msg.Info
		state.prepStep(ctx)
	case domain.GetScanIntervalResponse:
		state.logger.Debug("hadiscovery@prep: GetScanIntervalResponse", zap.Uint("seconds", msg.Seconds))
		state.scanInterval = msg.Seconds
		state.prepStep(ctx)
	default:
		state.logger.Debug("hadiscovery@prep: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) prepStep(ctx actor.Context) {
	state.prepRecv++
	if state.prepRecv < 2 {
		return
	}
	// the exposed reading set decides which sensors get announced
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.telemetryActor, domain.GetTelemetrySnapshotRequest{}, 10*time.Second), func(err error) any {
		return domain.GetTelemetrySnapshotResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
	state.behavior.Become(state.WaitingSnapshotReceive)
	state.stash.UnstashAll(ctx)
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) WaitingSnapshotReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetTelemetrySnapshotResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@snapshot: GetTelemetrySnapshotResponse", zap.Int("metrics", len(msg.Readings)))

		var sensors []domain.GenericSensor
		var inputNumbers []domain.GenericInputNumber

		bridgeDevice := events.BridgeDevice(state.config.MQTT.BaseTopic)
		sensors = append(sensors, events.BridgeSensors(bridgeDevice)...)

		info := state.info
		if info == nil {
			info = &openinverter.DeviceInfo{}
		}
		gatewayDevice := events.GatewayDevice(info, state.config.Inverter.IPAddress)
		gatewayDevice.ViaDevice = bridgeDevice.Id

		available := availableMetrics(msg)
		gatewaySensors := events.GatewaySensors(gatewayDevice, available)
		for i := range gatewaySensors {
			if i > 0 {
				gatewaySensors[i].Device = events.IdDevice(gatewayDevice)
			}
			sensors = append(sensors, gatewaySensors[i])
		}

		interval := state.scanInterval
		if interval == 0 {
			interval = state.config.Inverter.ScanIntervalSeconds
		}
		inputNumbers = append(inputNumbers, events.ScanIntervalNumber(bridgeDevice,
			float64(interval), config.MinScanIntervalSeconds))

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors:      sensors,
			InputNumbers: inputNumbers,
		})
		state.behavior.Become(state.Done)

	default:
		state.logger.Debug("hadiscovery@snapshot: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// availableMetrics picks the metric names to announce. With no data at all
// the whole table is announced so entities exist before the first poll
// succeeds.
func availableMetrics(snapshot domain.GetTelemetrySnapshotResponse) []string {
	if !snapshot.HasData || len(snapshot.Readings) == 0 {
		return events.KnownMetrics()
	}
	var out []string
	for _, metric := range events.KnownMetrics() {
		if _, ok := snapshot.Readings[metric]; ok {
			out = append(out, metric)
		}
	}
	return out
}
