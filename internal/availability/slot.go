// Package availability converts a resource's weekly availability rules,
// vacations, and holiday calendar into per-resource slot sequences (§4.B).
package availability

import (
	"time"

	"github.com/planloom/planloom/internal/interval"
)

// Slot is a range of time for one resource, plus the sub-intervals within
// it where the resource is actually available. Extensible marks a slot
// whose Range may still be grown by a later, abutting recompute; once the
// placer consumes time reaching the right edge of a slot's range, that
// slot becomes non-extensible. The placer removes consumed time from
// Intervals only; it does not split a slot's Range into residue slots.
type Slot struct {
	Range      interval.Interval[time.Time]
	Extensible bool
	Intervals  interval.Intervals[time.Time]
	Duration   time.Duration
}

func newSlot(rng interval.Interval[time.Time], extensible bool, ivs interval.Intervals[time.Time]) Slot {
	return Slot{
		Range:      rng,
		Extensible: extensible,
		Intervals:  ivs,
		Duration:   totalDuration(ivs),
	}
}

func durationOf(iv interval.Interval[time.Time]) (float64, bool) {
	sv, sok := iv.Start.Value()
	ev, eok := iv.End.Value()
	if !sok || !eok {
		return 0, false
	}
	return ev.Sub(sv).Seconds(), true
}

func totalDuration(ivs interval.Intervals[time.Time]) time.Duration {
	secs, ok := ivs.TotalLength(durationOf)
	if !ok {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// abuts reports whether slot's range ends exactly where next begins, so
// appending next's computed window would keep the slot contiguous.
func (s Slot) abuts(next interval.Interval[time.Time]) bool {
	ev, eok := s.Range.End.Value()
	sv, sok := next.Start.Value()
	return eok && sok && ev.Equal(sv) && (s.Range.End.IsClosed() || next.Start.IsClosed())
}
