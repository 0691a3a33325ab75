package actor

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	adactor "openinverter2mqtt/internal/adapter/actor"
	"openinverter2mqtt/internal/core/domain"
	"openinverter2mqtt/internal/storage"
	"openinverter2mqtt/internal/util"
	"openinverter2mqtt/internal/util/actorutil"
	"openinverter2mqtt/pkg/openinverter"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type telemetryFixture struct {
	as        *actor.ActorSystem
	context   *actor.RootContext
	reader    *openinverter.TestGatewayReader
	store     *storage.Store
	es        *eventstream.EventStream
	gateway   *actor.PID
	telemetry *actor.PID
}

func newTelemetryFixture(t *testing.T) *telemetryFixture {
	t.Helper()

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	store, err := storage.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	reader, err := openinverter.CreateTestGatewayReader()
	require.NoError(t, err)

	gatewayProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewGatewayActor(reader, 5*time.Second, logger)
	})
	gatewayPID := context.Spawn(gatewayProps)

	es := &eventstream.EventStream{}

	telemetryProps := actor.PropsFromProducer(func() actor.Actor {
		return NewTelemetryActor(&cfg, gatewayPID, store, es, logger)
	})
	telemetryPID := context.Spawn(telemetryProps)

	fixture := &telemetryFixture{
		as:        as,
		context:   context,
		reader:    reader,
		store:     store,
		es:        es,
		gateway:   gatewayPID,
		telemetry: telemetryPID,
	}
	t.Cleanup(func() {
		context.Stop(telemetryPID)
		context.Stop(gatewayPID)
		as.Shutdown()
	})
	return fixture
}

func (f *telemetryFixture) snapshot(t *testing.T) domain.GetTelemetrySnapshotResponse {
	t.Helper()
	res, err := f.context.RequestFuture(f.telemetry, domain.GetTelemetrySnapshotRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.GetTelemetrySnapshotResponse)
	require.True(t, ok)
	return resp
}

func TestTelemetryActorFirstPoll(t *testing.T) {

	f := newTelemetryFixture(t)

	time.Sleep(2 * time.Second)

	snapshot := f.snapshot(t)
	assert.True(t, snapshot.HasData)
	assert.EqualValues(t, 1520.5, snapshot.Readings["InputPower"])
	assert.EqualValues(t, 3.2, snapshot.Readings["TodayGenerateEnergy"])

	// first success must have been persisted
	persisted, err := f.store.LoadState()
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.EqualValues(t, 1520.5, persisted.Readings["InputPower"])
}

func TestTelemetryActorPublishesUpdateEvents(t *testing.T) {

	f := newTelemetryFixture(t)

	var mu sync.Mutex
	seen := map[string]float64{}
	sub := f.es.Subscribe(func(value any) {
		if ev, ok := value.(domain.FloatSensorUpdateEvent); ok {
			mu.Lock()
			seen[ev.Id] = ev.Value
			mu.Unlock()
		}
	})
	defer f.es.Unsubscribe(sub)

	time.Sleep(2 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.EqualValues(t, 1520.5, seen["input_power"])
	assert.EqualValues(t, 3.2, seen["energy_today"])
}

func TestTelemetryActorKeepsCacheOnFailure(t *testing.T) {

	f := newTelemetryFixture(t)

	// first poll succeeds
	time.Sleep(2 * time.Second)

	f.reader.SetError(errors.New("device unreachable"))

	// force another cycle through the runtime interval change
	res, err := f.context.RequestFuture(f.telemetry, domain.SetScanIntervalRequest{Seconds: 10}, 10*time.Second).Result()
	require.NoError(t, err)
	setResp, ok := res.(domain.SetScanIntervalResponse)
	require.True(t, ok)
	assert.EqualValues(t, 10, setResp.Seconds)

	time.Sleep(12 * time.Second)

	snapshot := f.snapshot(t)
	assert.True(t, snapshot.HasData)
	assert.EqualValues(t, 1520.5, snapshot.Readings["InputPower"], "cached reading survives the failed poll")
	assert.EqualValues(t, 3.2, snapshot.Readings["TodayGenerateEnergy"])
}

func TestTelemetryActorRejectsLowScanInterval(t *testing.T) {

	f := newTelemetryFixture(t)

	time.Sleep(1 * time.Second)

	res, err := f.context.RequestFuture(f.telemetry, domain.SetScanIntervalRequest{Seconds: 3}, 10*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.SetScanIntervalResponse)
	require.True(t, ok)
	assert.True(t, resp.HasResponseError(), "interval below the minimum is rejected")
}

func TestTelemetryActorPersistsScanInterval(t *testing.T) {

	f := newTelemetryFixture(t)

	time.Sleep(1 * time.Second)

	_, err := f.context.RequestFuture(f.telemetry, domain.SetScanIntervalRequest{Seconds: 120}, 10*time.Second).Result()
	require.NoError(t, err)

	seconds, err := f.store.LoadScanInterval()
	require.NoError(t, err)
	assert.EqualValues(t, 120, seconds)

	res, err := f.context.RequestFuture(f.telemetry, domain.GetScanIntervalRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	getResp, ok := res.(domain.GetScanIntervalResponse)
	require.True(t, ok)
	assert.EqualValues(t, 120, getResp.Seconds)
}
