package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resource is a person or piece of equipment that can be assigned to tasks.
// Timezone is an IANA zone name; availability/holiday calculations happen
// in that zone before being converted to naive UTC instants.
type Resource struct {
	ID        string
	Name      string
	Timezone  string
	Added     time.Time
	Removed   *time.Time
	HolidayID *string

	Availability []Availability
	Vacations    []Vacation
}

// Availability is a recurring weekly rule: on Weekday, the resource is
// available for Duration hours (Decimal, so e.g. 7.5h is exact).
type Availability struct {
	ID         string
	ResourceID string
	Weekday    Weekday
	Duration   decimal.Decimal
}

// Vacation blocks out [From, Until) for a resource; From must precede
// Until.
type Vacation struct {
	ID         string
	ResourceID string
	From       time.Time
	Until      time.Time
}

// Holiday is a named calendar (e.g. a country's public holidays), cached
// locally from an external provider (out of scope for this module — see
// HolidayProvider in internal/repository).
type Holiday struct {
	ID          string
	ExternalID  string
	Name        string
	CachedRange *TimeRange
	Entries     []HolidayEntry
}

// TimeRange is a half-open window of calendar dates already fetched and
// cached for a Holiday.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// HolidayEntry is a single non-working day. Entries are unique by Date
// within a Holiday.
type HolidayEntry struct {
	ID   string
	Date time.Time
	Name *string
}
