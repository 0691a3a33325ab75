package actor

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	adactor "openinverter2mqtt/internal/adapter/actor"
	"openinverter2mqtt/internal/core/domain"
	"openinverter2mqtt/internal/storage"
	"openinverter2mqtt/internal/util"
	"openinverter2mqtt/pkg/openinverter"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	store, err := storage.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Error(err)
		return
	}
	defer store.Close()

	reader, err := openinverter.CreateTestGatewayReader()
	if err != nil {
		t.Error(err)
		return
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, store, func() *adactor.GatewayActor {
			return adactor.NewGatewayActor(reader, 5*time.Second, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		//return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorForwardsSnapshotRequest(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())

	store, err := storage.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Error(err)
		return
	}
	defer store.Close()

	reader, err := openinverter.CreateTestGatewayReader()
	if err != nil {
		t.Error(err)
		return
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, store, func() *adactor.GatewayActor {
			return adactor.NewGatewayActor(reader, 5*time.Second, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	// let the first poll complete
	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.GetTelemetrySnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	snapshot, ok := res.(domain.GetTelemetrySnapshotResponse)
	assert.True(t, ok)
	assert.True(t, snapshot.HasData, "snapshot has data after first poll")
	assert.EqualValues(t, 1520.5, snapshot.Readings["InputPower"], "fresh InputPower exposed")

	context.Stop(pid)

	as.Shutdown()
}
