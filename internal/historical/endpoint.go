package historical

import (
	"time"

	"github.com/seenimoa/oilprice/pkg/utils"
)

// Day-count thresholds of the endpoint windows, inclusive.
const (
	dayMaxDays   = 1
	weekMaxDays  = 7
	monthMaxDays = 30
)

// Default routes of the historical windows.
const (
	DefaultDayPath   = "/v1/prices/past_day"
	DefaultWeekPath  = "/v1/prices/past_week"
	DefaultMonthPath = "/v1/prices/past_month"
	DefaultYearPath  = "/v1/prices/past_year"
)

// DateRange is an optional pair of calendar bounds. A zero time means the
// bound is absent. Reversed ranges are accepted.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Bounded reports whether both bounds are present.
func (r DateRange) Bounded() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Days returns the calendar-day span End - Start. Only meaningful when Bounded.
func (r DateRange) Days() int {
	return utils.CalendarDays(r.Start, r.End)
}

// Endpoint identifies one of the server-side time windows.
type Endpoint int

const (
	EndpointDay Endpoint = iota
	EndpointWeek
	EndpointMonth
	EndpointYear
)

func (e Endpoint) String() string {
	switch e {
	case EndpointDay:
		return "day"
	case EndpointWeek:
		return "week"
	case EndpointMonth:
		return "month"
	case EndpointYear:
		return "year"
	default:
		return "unknown"
	}
}

// SelectEndpoint picks the narrowest window covering r. Unbounded ranges
// get the year window; zero and negative spans get the day window.
func SelectEndpoint(r DateRange) Endpoint {
	if !r.Bounded() {
		return EndpointYear
	}
	switch days := r.Days(); {
	case days <= dayMaxDays:
		return EndpointDay
	case days <= weekMaxDays:
		return EndpointWeek
	case days <= monthMaxDays:
		return EndpointMonth
	default:
		return EndpointYear
	}
}

// EndpointPaths maps each window to its route.
type EndpointPaths struct {
	Day   string
	Week  string
	Month string
	Year  string
}

// DefaultEndpointPaths returns the routes of the public API.
func DefaultEndpointPaths() EndpointPaths {
	return EndpointPaths{
		Day:   DefaultDayPath,
		Week:  DefaultWeekPath,
		Month: DefaultMonthPath,
		Year:  DefaultYearPath,
	}
}

// Path returns the route of e, falling back to the default route when unset.
func (p EndpointPaths) Path(e Endpoint) string {
	var path, def string
	switch e {
	case EndpointDay:
		path, def = p.Day, DefaultDayPath
	case EndpointWeek:
		path, def = p.Week, DefaultWeekPath
	case EndpointMonth:
		path, def = p.Month, DefaultMonthPath
	default:
		path, def = p.Year, DefaultYearPath
	}
	if path == "" {
		return def
	}
	return path
}
