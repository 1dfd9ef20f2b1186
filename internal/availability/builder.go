package availability

import (
	"fmt"
	"time"

	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/interval"
)

// maxDayHours caps a single day's generated window width at 24h even if a
// weekday rule claims more.
const maxDayHours = 24.0

// BuildWindow computes the availability intervals for resource within the
// half-open window [start, end), both naive UTC instants, honoring
// vacations and an optional holiday calendar. Returns the range interval
// actually covered (clipped to [start, end)) and the available
// sub-intervals within it.
func BuildWindow(resource domain.Resource, holiday *domain.Holiday, start, end time.Time) (interval.Interval[time.Time], interval.Intervals[time.Time], error) {
	if !start.Before(end) {
		return interval.Interval[time.Time]{}, nil, fmt.Errorf("availability: window start must precede end")
	}
	loc, err := time.LoadLocation(resource.Timezone)
	if err != nil {
		return interval.Interval[time.Time]{}, nil, fmt.Errorf("availability: loading timezone %q: %w", resource.Timezone, err)
	}

	window := interval.MustNew(interval.StartClosed(start), interval.EndOpen[time.Time](end))
	hoursByWeekday := make(map[domain.Weekday]float64, len(resource.Availability))
	for _, a := range resource.Availability {
		f, _ := a.Duration.Float64()
		hoursByWeekday[a.Weekday] = f
	}

	var computed interval.Intervals[time.Time]
	startLocal := start.In(loc)
	endLocal := end.In(loc)
	y, m, d := startLocal.Date()
	cursor := time.Date(y, m, d, 0, 0, 0, 0, loc)
	last := time.Date(endLocal.Year(), endLocal.Month(), endLocal.Day(), 0, 0, 0, 0, loc)

	for !cursor.After(last) {
		wd := domain.FromTimeWeekday(int(cursor.Weekday()))
		hours, ok := hoursByWeekday[wd]
		if ok && hours > 0 {
			width := hours
			if width > maxDayHours {
				width = maxDayHours
			}
			noon := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 12, 0, 0, 0, loc)
			half := time.Duration(width / 2 * float64(time.Hour))
			dayStart := noon.Add(-half).UTC()
			dayEnd := noon.Add(half).UTC()
			if dayStart.Before(dayEnd) {
				dayIv := interval.MustNew(interval.StartClosed(dayStart), interval.EndOpen[time.Time](dayEnd))
				if clipped, ok := dayIv.Intersection(window); ok {
					computed = computed.Insert(clipped)
				}
			}
		}
		cursor = cursor.AddDate(0, 0, 1)
	}

	for _, v := range resource.Vacations {
		vIv, err := interval.New(interval.StartClosed(v.From), interval.EndOpen[time.Time](v.Until))
		if err != nil {
			continue
		}
		if clipped, ok := vIv.Intersection(window); ok {
			computed = computed.Remove(clipped)
		}
	}

	if holiday != nil {
		for _, entry := range holiday.Entries {
			dayIv, err := holidayDayInterval(entry.Date, loc)
			if err != nil {
				return interval.Interval[time.Time]{}, nil, err
			}
			if clipped, ok := dayIv.Intersection(window); ok {
				computed = computed.Remove(clipped)
			}
		}
	}

	return window, computed, nil
}

// holidayDayInterval returns the [00:00, 24:00) window, in loc, for a
// holiday entry's calendar date, converted to naive UTC.
func holidayDayInterval(date time.Time, loc *time.Location) (interval.Interval[time.Time], error) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc).UTC()
	end := time.Date(y, m, d, 24, 0, 0, 0, loc).UTC()
	return interval.New(interval.StartClosed(start), interval.EndOpen[time.Time](end))
}

// ExtendSlots appends a newly computed [rng, computed) window to slots,
// extending the last slot in place if it is extensible and abuts rng, or
// appending a fresh extensible slot otherwise.
func ExtendSlots(slots []Slot, rng interval.Interval[time.Time], computed interval.Intervals[time.Time]) []Slot {
	if len(slots) > 0 {
		last := slots[len(slots)-1]
		if last.Extensible && last.abuts(rng) {
			union, ok := last.Range.Union(rng)
			if !ok {
				union = rng
			}
			merged := last.Intervals.Union(computed)
			slots[len(slots)-1] = newSlot(union, true, merged)
			return slots
		}
	}
	return append(slots, newSlot(rng, true, computed))
}

// BuildResourceSlots is the entry point used by the problem builder: it
// computes the window for resource and folds it into the resource's
// existing slot list.
func BuildResourceSlots(existing []Slot, resource domain.Resource, holiday *domain.Holiday, start, end time.Time) ([]Slot, error) {
	rng, computed, err := BuildWindow(resource, holiday, start, end)
	if err != nil {
		return nil, err
	}
	return ExtendSlots(existing, rng, computed), nil
}
