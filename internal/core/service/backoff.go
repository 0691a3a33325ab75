package service

import "time"

// Backoff grows the poll interval while the gateway is unreachable so an
// offline device is not hammered every cycle. The interval doubles on each
// consecutive failure, capped at Max, and snaps back to Base on success.
type Backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

func NewBackoff(base, max time.Duration) *Backoff {
	if max < base {
		max = base
	}
	return &Backoff{
		base:    base,
		max:     max,
		current: base,
	}
}

// Fail registers a failed cycle and returns the interval to wait before the
// next one.
func (b *Backoff) Fail() time.Duration {
	next := b.current * 2
	if next > b.max {
		next = b.max
	}
	b.current = next
	return b.current
}

// Reset restores the base interval after a successful cycle. It reports
// whether the interval actually changed, so callers can log the recovery.
func (b *Backoff) Reset() bool {
	changed := b.current != b.base
	b.current = b.base
	return changed
}

// SetBase changes the base interval (runtime reconfiguration). The current
// interval is restarted from the new base.
func (b *Backoff) SetBase(base time.Duration) {
	b.base = base
	if b.max < base {
		b.max = base
	}
	b.current = base
}

func (b *Backoff) Base() time.Duration {
	return b.base
}

func (b *Backoff) Current() time.Duration {
	return b.current
}
