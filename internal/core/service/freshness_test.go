package service

import (
	"testing"

	"openinverter2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDaily = []string{"energy_today"}
	testKnown = []string{"power", "energy_today"}

	day1 = domain.Date{Year: 2024, Month: 1, Day: 1}
	day2 = domain.Date{Year: 2024, Month: 1, Day: 2}
)

func testPolicy() *FreshnessPolicy {
	return NewFreshnessPolicy(testDaily, testKnown)
}

func TestSuccessfulPollReplacesState(t *testing.T) {

	require := require.New(t)

	fresh := domain.ReadingSet{"power": 750, "energy_today": 4.1}
	prev := &domain.CachedState{
		Readings: domain.ReadingSet{"power": 500, "energy_today": 3.2},
		Date:     day1,
	}

	result := testPolicy().Evaluate(fresh, prev, day2)

	assert.Equal(t, fresh, result.Exposed)
	require.NotNil(result.NewState)
	assert.Equal(t, fresh, result.NewState.Readings)
	assert.Equal(t, day2, result.NewState.Date)
}

func TestFailedPollSameDayKeepsCache(t *testing.T) {

	prev := &domain.CachedState{
		Readings: domain.ReadingSet{"power": 500, "energy_today": 3.2},
		Date:     day1,
	}

	result := testPolicy().Evaluate(nil, prev, day1)

	assert.Equal(t, domain.ReadingSet{"power": 500, "energy_today": 3.2}, result.Exposed)
	assert.Nil(t, result.NewState, "same-day fallback must not rewrite the cache")
}

func TestFailedPollNextDayResetsDailyMetrics(t *testing.T) {

	require := require.New(t)

	prev := &domain.CachedState{
		Readings: domain.ReadingSet{"power": 500, "energy_today": 3.2},
		Date:     day1,
	}

	result := testPolicy().Evaluate(nil, prev, day2)

	assert.Equal(t, domain.ReadingSet{"power": 500, "energy_today": 0}, result.Exposed)
	require.NotNil(result.NewState)
	assert.Equal(t, domain.ReadingSet{"power": 500, "energy_today": 0}, result.NewState.Readings)
	assert.Equal(t, day2, result.NewState.Date)

	// the input state must not have been touched
	assert.EqualValues(t, 3.2, prev.Readings["energy_today"])
	assert.Equal(t, day1, prev.Date)
}

func TestFailedPollEmptyCacheExposesZeros(t *testing.T) {

	result := testPolicy().Evaluate(nil, nil, day1)

	assert.Equal(t, domain.ReadingSet{"power": 0, "energy_today": 0}, result.Exposed)
	assert.Nil(t, result.NewState, "no state may be persisted before the first successful poll")
}

func TestFailedPollEmptyReadingsTreatedAsEmptyCache(t *testing.T) {

	prev := &domain.CachedState{Readings: domain.ReadingSet{}, Date: day1}
	result := testPolicy().Evaluate(nil, prev, day2)

	assert.Equal(t, domain.ReadingSet{"power": 0, "energy_today": 0}, result.Exposed)
	assert.Nil(t, result.NewState)
}

func TestRolloverHappensOnce(t *testing.T) {

	require := require.New(t)

	prev := &domain.CachedState{
		Readings: domain.ReadingSet{"power": 500, "energy_today": 3.2},
		Date:     day1,
	}

	p := testPolicy()
	first := p.Evaluate(nil, prev, day2)
	require.NotNil(first.NewState)

	// a second failure on the same day falls back without rewriting
	second := p.Evaluate(nil, first.NewState, day2)
	assert.Equal(t, first.Exposed, second.Exposed)
	assert.Nil(t, second.NewState)
}

func TestClockSkewDoesNotReset(t *testing.T) {

	// cached date after "today" should behave like the same-day case
	prev := &domain.CachedState{
		Readings: domain.ReadingSet{"power": 500, "energy_today": 3.2},
		Date:     day2,
	}

	result := testPolicy().Evaluate(nil, prev, day1)

	assert.EqualValues(t, 3.2, result.Exposed["energy_today"])
	assert.Nil(t, result.NewState)
}

func TestIsDaily(t *testing.T) {
	p := testPolicy()
	assert.True(t, p.IsDaily("energy_today"))
	assert.False(t, p.IsDaily("power"))
}
