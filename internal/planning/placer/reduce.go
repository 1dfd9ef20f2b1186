package placer

import (
	"time"

	"github.com/planloom/planloom/internal/availability"
	"github.com/planloom/planloom/internal/interval"
)

func secondsLen(iv interval.Interval[time.Time]) (float64, bool) {
	sv, sok := iv.Start.Value()
	ev, eok := iv.End.Value()
	if !sok || !eok {
		return 0, false
	}
	return ev.Sub(sv).Seconds(), true
}

func totalDuration(ivs interval.Intervals[time.Time]) (time.Duration, bool) {
	secs, ok := ivs.TotalLength(secondsLen)
	if !ok {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// reduceIntervals takes whole intervals from ivs, in order, until
// duration is exhausted; the last interval taken is truncated if it
// overshoots (§4.E step 5c).
func reduceIntervals(ivs interval.Intervals[time.Time], duration time.Duration) interval.Intervals[time.Time] {
	var out interval.Intervals[time.Time]
	remaining := duration
	for _, iv := range ivs {
		if remaining <= 0 {
			break
		}
		sv, sok := iv.Start.Value()
		ev, eok := iv.End.Value()
		if !sok || !eok {
			continue
		}
		width := ev.Sub(sv)
		if width <= remaining {
			out = append(out, iv)
			remaining -= width
			continue
		}
		truncated, err := interval.New(interval.StartClosed(sv), interval.EndOpen[time.Time](sv.Add(remaining)))
		if err == nil {
			out = append(out, truncated)
		}
		remaining = 0
	}
	return out
}

// resourceAvailable merges a resource's slot intervals, clipped to
// [from, to), into one sorted disjoint collection.
func resourceAvailable(slots []availability.Slot, from, to time.Time) interval.Intervals[time.Time] {
	window := interval.MustNew(interval.StartClosed(from), interval.EndOpen[time.Time](to))
	var out interval.Intervals[time.Time]
	for _, s := range slots {
		for _, iv := range s.Intervals {
			if clipped, ok := iv.Intersection(window); ok {
				out = out.Insert(clipped)
			}
		}
	}
	return out
}

// commitInterval subtracts iv from every slot it overlaps, marking a
// slot non-extensible once its trailing edge has been consumed, and
// recomputes each touched slot's duration (§4.E step 5e).
func commitInterval(slots []availability.Slot, iv interval.Interval[time.Time]) []availability.Slot {
	out := make([]availability.Slot, len(slots))
	for i, s := range slots {
		clipped, ok := iv.Intersection(s.Range)
		if !ok {
			out[i] = s
			continue
		}
		newIntervals := s.Intervals.Remove(clipped)
		extensible := s.Extensible
		if rangeEnd, ok2 := s.Range.End.Value(); ok2 {
			if clippedEnd, ok3 := clipped.End.Value(); ok3 && !clippedEnd.Before(rangeEnd) {
				extensible = false
			}
		}
		dur, _ := totalDuration(newIntervals)
		out[i] = availability.Slot{Range: s.Range, Extensible: extensible, Intervals: newIntervals, Duration: dur}
	}
	return out
}
