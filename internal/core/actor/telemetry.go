package actor

import (
	"context"
	"fmt"
	"time"

	"openinverter2mqtt/internal/config"
	"openinverter2mqtt/internal/core/domain"
	"openinverter2mqtt/internal/core/events"
	"openinverter2mqtt/internal/core/service"
	"openinverter2mqtt/internal/storage"
	. "openinverter2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

const backoffMaxInterval = 5 * time.Minute

// TelemetryActor drives the poll cycle: it asks the gateway actor for a
// status on every tick, runs the freshness policy over the result and
// publishes the exposed readings on the event stream. A quartz cron job
// forces an extra cycle right after local midnight so daily counters roll
// over even while the device is offline.
type TelemetryActor struct {
	behavior   actor.Behavior
	stash      *Stash
	scheduler  *scheduler.TimerScheduler
	cancelTick scheduler.CancelFunc

	gatewayActor *actor.PID
	config       *config.Config
	eventStream  *eventstream.EventStream
	store        *storage.Store
	policy       *service.FreshnessPolicy
	backoff      *service.Backoff

	cron quartz.Scheduler

	cached      *domain.CachedState
	exposed     domain.ReadingSet
	exposedDate domain.Date
	hasData     bool

	logger *zap.Logger
}

type telemetryTick struct {
	// chain is false for out-of-band ticks (midnight job), which must not
	// schedule a follow-up of their own
	chain bool
}

func NewTelemetryActor(config *config.Config, gatewayActor *actor.PID, store *storage.Store,
	eventStream *eventstream.EventStream, logger *zap.Logger) *TelemetryActor {
	act := &TelemetryActor{
		config:       config,
		gatewayActor: gatewayActor,
		store:        store,
		behavior:     actor.NewBehavior(),
		stash:        &Stash{},
		logger:       ActorLogger(domain.ACTOR_ID_TELEMETRY, logger),
		eventStream:  eventStream,
		policy:       service.NewFreshnessPolicy(events.DailyMetrics(), events.KnownMetrics()),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *TelemetryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *TelemetryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("telemetry@starting started")

		// restore persisted cache. readings stay exposed until the first
		// poll resolves
		cached, err := state.store.LoadState()
		if err != nil {
			state.logger.Error("telemetry@starting could not load persisted state", zap.Error(err))
		} else if cached != nil {
			state.cached = cached
			state.exposed = cached.Readings.Clone()
			state.exposedDate = cached.Date
			state.hasData = true
			state.logger.Info("telemetry@starting restored persisted state",
				zap.String("date", cached.Date.String()),
				zap.Int("metrics", len(cached.Readings)))
		}

		state.backoff = service.NewBackoff(state.scanInterval(), backoffMaxInterval)

		state.scheduler = scheduler.NewTimerScheduler(ctx)
		if err := state.startMidnightJob(ctx); err != nil {
			state.logger.Error("telemetry@starting could not start midnight job", zap.Error(err))
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)

		// first poll right away
		ctx.Send(ctx.Self(), telemetryTick{chain: true})
	case *actor.Restarting:
		state.stopCron()
	default:
		state.logger.Debug("telemetry@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *TelemetryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("telemetry@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_TELEMETRY,
			Healthy: true,
			State:   "idle",
		})
	case telemetryTick:
		state.logger.Debug("telemetry@default tick", zap.Bool("chain", msg.chain))
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.gatewayActor, domain.GetGatewayStatusRequest{},
			state.requestTimeout()), func(err error) any {
			return domain.GetGatewayStatusResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.BecomeStacked(state.waitingStatus(msg.chain))
	case domain.GetTelemetrySnapshotRequest:
		state.logger.Debug("telemetry@default: GetTelemetrySnapshotRequest")
		ForRequest(msg).Respond(ctx, state.snapshot())
	case domain.SetScanIntervalRequest:
		state.logger.Debug("telemetry@default: SetScanIntervalRequest", zap.Uint("seconds", msg.Seconds))
		state.handleSetScanInterval(ctx, msg)
	case domain.GetScanIntervalRequest:
		ForRequest(msg).Respond(ctx, domain.GetScanIntervalResponse{
			Seconds: uint(state.backoff.Base() / time.Second),
		})
	case *actor.Stopping:
		state.stopCron()
	default:
		state.logger.Debug("telemetry@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *TelemetryActor) waitingStatus(chain bool) func(actor.Context) {
	return func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case domain.GetGatewayStatusResponse:
			state.handlePollResult(ctx, msg, chain)
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		case *actor.Stopping:
			state.stopCron()
		default:
			state.logger.Debug("telemetry@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
			state.stash.Stash(ctx, msg)
		}
	}
}

func (state *TelemetryActor) handlePollResult(ctx actor.Context, msg domain.GetGatewayStatusResponse, chain bool) {
	today := domain.DateOf(time.Now())

	var fresh domain.ReadingSet
	if !msg.HasResponseError() && msg.Status != nil {
		fresh = domain.ReadingSet(msg.Status.Readings)
	} else if msg.HasResponseError() {
		state.logger.Warn("telemetry@waiting poll failed", zap.Error(msg.GetResponseError()))
	}

	result := state.policy.Evaluate(fresh, state.cached, today)

	state.exposed = result.Exposed
	state.exposedDate = today
	state.hasData = true
	if result.NewState != nil {
		state.cached = result.NewState
		if err := state.store.SaveState(result.NewState); err != nil {
			// a write failure costs persistence across restarts, not the
			// current cycle
			state.logger.Error("telemetry@waiting could not persist state", zap.Error(err))
		}
	}

	for _, ev := range events.ReadingSetToUpdateEvents(result.Exposed) {
		state.eventStream.Publish(ev)
	}

	// reschedule with backoff on failure, base interval on success
	var next time.Duration
	if fresh == nil {
		next = state.backoff.Fail()
		state.logger.Info("telemetry@waiting backing off", zap.Duration("next", next))
	} else {
		if state.backoff.Reset() {
			state.logger.Info("telemetry@waiting gateway recovered",
				zap.Duration("interval", state.backoff.Base()))
		}
		next = state.backoff.Base()
	}
	if chain {
		state.cancelTick = state.scheduler.RequestOnce(next, ctx.Self(), telemetryTick{chain: true})
	}
}

func (state *TelemetryActor) handleSetScanInterval(ctx actor.Context, msg domain.SetScanIntervalRequest) {
	seconds, err := config.CheckScanInterval(msg.Seconds)
	if err != nil {
		state.logger.Warn("telemetry@default rejected scan interval", zap.Uint("seconds", msg.Seconds))
		ForRequest(msg).Respond(ctx, domain.SetScanIntervalResponse{
			ReconfigureResponseMixIn: domain.ReconfigureResponseMixIn{
				ActorResponse: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			},
		})
		return
	}

	state.backoff.SetBase(time.Duration(seconds) * time.Second)
	// restart the tick chain so the new interval applies immediately
	if state.cancelTick != nil {
		state.cancelTick()
	}
	state.cancelTick = state.scheduler.RequestOnce(state.backoff.Base(), ctx.Self(), telemetryTick{chain: true})
	if err := state.store.SaveScanInterval(seconds); err != nil {
		state.logger.Error("telemetry@default could not persist scan interval", zap.Error(err))
	}
	state.eventStream.Publish(events.ScanIntervalUpdateEvent(seconds))
	state.logger.Info("telemetry@default scan interval changed", zap.Uint("seconds", seconds))

	ForRequest(msg).Respond(ctx, domain.SetScanIntervalResponse{
		ReconfigureResponseMixIn: domain.ReconfigureResponseMixIn{
			ActorResponse: domain.ActorResponseMixIn{},
		},
		Seconds: seconds,
	})
}

func (state *TelemetryActor) snapshot() domain.GetTelemetrySnapshotResponse {
	return domain.GetTelemetrySnapshotResponse{
		Readings: state.exposed.Clone(),
		Date:     state.exposedDate,
		HasData:  state.hasData,
	}
}

// scanInterval resolves the effective poll interval: a persisted runtime
// override wins over the configured default.
func (state *TelemetryActor) scanInterval() time.Duration {
	seconds := state.config.Inverter.ScanIntervalSeconds
	if override, err := state.store.LoadScanInterval(); err != nil {
		state.logger.Error("telemetry could not load scan interval override", zap.Error(err))
	} else if override >= config.MinScanIntervalSeconds {
		seconds = override
	}
	return time.Duration(seconds) * time.Second
}

func (state *TelemetryActor) requestTimeout() time.Duration {
	timeout := time.Duration(state.config.Inverter.RequestTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return timeout + time.Second
}

func (state *TelemetryActor) startMidnightJob(ctx actor.Context) error {
	trigger, err := quartz.NewCronTriggerWithLoc("0 0 0 * * *", time.Local)
	if err != nil {
		return err
	}

	system := ctx.ActorSystem()
	self := ctx.Self()
	midnight := job.NewFunctionJob(func(_ context.Context) (any, error) {
		system.Root.Send(self, telemetryTick{chain: false})
		return nil, nil
	})

	sched := quartz.NewStdScheduler()
	sched.Start(context.Background())
	if err := sched.ScheduleJob(quartz.NewJobDetail(midnight, quartz.NewJobKey("midnight-rollover")), trigger); err != nil {
		sched.Stop()
		return err
	}
	state.cron = sched
	return nil
}

func (state *TelemetryActor) stopCron() {
	if state.cron != nil {
		state.cron.Stop()
		state.cron = nil
	}
}
