package historical

import "time"

// Request timeouts by range size.
const (
	ShortTimeout  = 30 * time.Second  // up to a week
	MediumTimeout = 60 * time.Second  // up to a month
	LongTimeout   = 120 * time.Second // longer or unbounded
)

// ComputeTimeout returns override when positive, otherwise the timeout
// matching the size of r.
func ComputeTimeout(r DateRange, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if !r.Bounded() {
		return LongTimeout
	}
	switch days := r.Days(); {
	case days <= weekMaxDays:
		return ShortTimeout
	case days <= monthMaxDays:
		return MediumTimeout
	default:
		return LongTimeout
	}
}
