package storage

import (
	"path/filepath"
	"testing"

	"openinverter2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestLoadStateEmpty(t *testing.T) {

	store := openTestStore(t)

	state, err := store.LoadState()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSaveAndLoadState(t *testing.T) {

	require := require.New(t)

	store := openTestStore(t)

	saved := &domain.CachedState{
		Readings: domain.ReadingSet{
			"InputPower":          1520.5,
			"TodayGenerateEnergy": 3.2,
		},
		Date: domain.Date{Year: 2024, Month: 6, Day: 15},
	}
	require.NoError(store.SaveState(saved))

	loaded, err := store.LoadState()
	require.NoError(err)
	require.NotNil(loaded)
	assert.Equal(t, saved.Readings, loaded.Readings)
	assert.Equal(t, saved.Date, loaded.Date)
}

func TestSaveStateOverwrites(t *testing.T) {

	require := require.New(t)

	store := openTestStore(t)

	require.NoError(store.SaveState(&domain.CachedState{
		Readings: domain.ReadingSet{"InputPower": 100},
		Date:     domain.Date{Year: 2024, Month: 6, Day: 15},
	}))
	require.NoError(store.SaveState(&domain.CachedState{
		Readings: domain.ReadingSet{"InputPower": 200},
		Date:     domain.Date{Year: 2024, Month: 6, Day: 16},
	}))

	loaded, err := store.LoadState()
	require.NoError(err)
	require.NotNil(loaded)
	assert.EqualValues(t, 200, loaded.Readings["InputPower"])
	assert.Equal(t, domain.Date{Year: 2024, Month: 6, Day: 16}, loaded.Date)
}

func TestScanIntervalRoundtrip(t *testing.T) {

	require := require.New(t)

	store := openTestStore(t)

	seconds, err := store.LoadScanInterval()
	require.NoError(err)
	assert.Zero(t, seconds, "no override persisted yet")

	require.NoError(store.SaveScanInterval(120))

	seconds, err = store.LoadScanInterval()
	require.NoError(err)
	assert.EqualValues(t, 120, seconds)
}

func TestOpenInvalidPath(t *testing.T) {

	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "state.db"))
	assert.Error(t, err)
}
