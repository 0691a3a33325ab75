package actor

import (
	"context"
	"fmt"
	"time"

	"openinverter2mqtt/internal/core/domain"
	"openinverter2mqtt/internal/util/actorutil"
	"openinverter2mqtt/pkg/openinverter"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// GatewayActor owns the HTTP connection to the inverter gateway. Requests are
// served one at a time, concurrent ones are stashed while a fetch is in
// flight.
type GatewayActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	reader   openinverter.GatewayReader
	timeout  time.Duration
	info     *openinverter.DeviceInfo
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewGatewayActor(reader openinverter.GatewayReader, timeout time.Duration, logger *zap.Logger) *GatewayActor {
	act := &GatewayActor{
		reader:   reader,
		timeout:  timeout,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_GATEWAY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *GatewayActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *GatewayActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("gateway@starting started")
		if err := state.reader.Open(); err != nil {
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)

		// initial probe. an unreachable device is not fatal, identity is
		// cached on the first status that succeeds
		ctx.Send(ctx.Self(), domain.GetGatewayStatusRequest{
			ActorRequestMixIn: domain.ActorRequestMixIn{
				ReplyToRef: (*domain.ActorRef)(ctx.Self()),
			},
		})
	case *actor.Restarting:
		state.reader.Close()
	default:
		state.logger.Debug("gateway@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *GatewayActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("gateway@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_GATEWAY,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetGatewayStatusRequest:
		state.logger.Debug("gateway@default: GetGatewayStatusRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getStatus),
			mapTaskResult[domain.GetGatewayStatusResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetGatewayStatusResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout + time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingGateway)
	case domain.GetGatewayInfoRequest:
		state.logger.Debug("gateway@default: GetGatewayInfoRequest")
		ctx.Respond(domain.GetGatewayInfoResponse{
			Info: state.info,
		})
	case domain.GetGatewayStatusResponse:
		// self-probe result, identity already cached in WaitingGateway
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("gateway@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *GatewayActor) WaitingGateway(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("gateway@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if resp, ok := msg.message.(domain.GetGatewayStatusResponse); ok && resp.Status != nil {
			state.info = &resp.Status.Info
		}
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("gateway@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *GatewayActor) getStatus() (*domain.GetGatewayStatusResponse, error) {
	reqCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	status, err := a.reader.GetStatus(reqCtx)
	if err != nil {
		return nil, err
	}
	return &domain.GetGatewayStatusResponse{
		Status: status,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
