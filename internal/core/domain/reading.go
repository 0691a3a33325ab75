package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReadingSet maps a gateway metric key (e.g. "OutputPower") to the value
// reported for it on one poll cycle.
type ReadingSet map[string]float64

func (r ReadingSet) Clone() ReadingSet {
	if r == nil {
		return nil
	}
	out := make(ReadingSet, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Date is a calendar date in the local timezone. Daily energy counters on the
// gateway reset at local midnight, so freshness decisions compare dates, not
// instants.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}

// CachedState is the last known-good reading set and the calendar date it was
// recorded on. It is created on the first successful poll, updated on every
// successful poll and on midnight rollover, and survives restarts through the
// state store.
type CachedState struct {
	Readings ReadingSet `json:"readings"`
	Date     Date       `json:"date"`
}
