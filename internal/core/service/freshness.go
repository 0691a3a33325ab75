package service

import (
	"openinverter2mqtt/internal/core/domain"
)

// FreshnessPolicy decides what reading set entities should see after one poll
// cycle, and what should be persisted as the new cached state.
//
// The rules, in order:
//   - successful poll: expose the fresh readings and cache them under today's
//     date;
//   - failed poll without any cached state: expose zeros for every known
//     metric and cache nothing, so the next cycle retries from scratch;
//   - failed poll on the same day as the cache: expose the cached readings
//     unchanged. Stale-but-same-day values beat zeros;
//   - failed poll on a later day than the cache: daily counters are zeroed
//     (the device has reset them at midnight, whatever it reported yesterday
//     is not today's accumulation), instantaneous values are carried over,
//     and the rolled-over set is cached under today's date.
type FreshnessPolicy struct {
	daily map[string]struct{}
	known []string
}

// EvalResult is the outcome of one policy evaluation. NewState is nil when
// the persisted state must be left untouched.
type EvalResult struct {
	Exposed  domain.ReadingSet
	NewState *domain.CachedState
}

func NewFreshnessPolicy(dailyMetrics, knownMetrics []string) *FreshnessPolicy {
	daily := make(map[string]struct{}, len(dailyMetrics))
	for _, m := range dailyMetrics {
		daily[m] = struct{}{}
	}
	return &FreshnessPolicy{
		daily: daily,
		known: knownMetrics,
	}
}

func (p *FreshnessPolicy) IsDaily(metric string) bool {
	_, ok := p.daily[metric]
	return ok
}

// Evaluate applies the policy to one poll outcome. A nil fresh set means the
// poll failed. prev is the currently persisted state, nil before the first
// successful poll ever. The function is pure: it never mutates prev.
func (p *FreshnessPolicy) Evaluate(fresh domain.ReadingSet, prev *domain.CachedState, today domain.Date) EvalResult {

	if fresh != nil {
		return EvalResult{
			Exposed: fresh,
			NewState: &domain.CachedState{
				Readings: fresh.Clone(),
				Date:     today,
			},
		}
	}

	if prev == nil || len(prev.Readings) == 0 {
		return EvalResult{
			Exposed: p.zeroReadings(),
		}
	}

	if !prev.Date.Before(today) {
		// same day (or a clock that went backwards, which we treat the
		// same): the cached values are the best available
		return EvalResult{
			Exposed: prev.Readings.Clone(),
		}
	}

	// midnight crossed while offline: zero the daily counters, keep the
	// last instantaneous values, and advance the cached date so the
	// rollover happens exactly once
	rolled := prev.Readings.Clone()
	for metric := range rolled {
		if p.IsDaily(metric) {
			rolled[metric] = 0
		}
	}
	return EvalResult{
		Exposed: rolled,
		NewState: &domain.CachedState{
			Readings: rolled.Clone(),
			Date:     today,
		},
	}
}

func (p *FreshnessPolicy) zeroReadings() domain.ReadingSet {
	out := make(domain.ReadingSet, len(p.known))
	for _, m := range p.known {
		out[m] = 0
	}
	return out
}
