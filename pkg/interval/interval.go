package interval

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End) over absolute UTC
// instants. All comparisons happen on the instant, never on wall-clock
// strings; callers convert caregiver-local input before constructing one.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New normalizes both endpoints to UTC and rejects empty or inverted
// ranges.
func New(start, end time.Time) (Interval, error) {
	start = start.UTC()
	end = end.UTC()
	if !end.After(start) {
		return Interval{}, fmt.Errorf("interval end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps is the half-open overlap test: an appointment ending at T and
// one starting at T do not conflict.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether requested lies entirely inside window.
func Contains(window, requested Interval) bool {
	return !window.Start.After(requested.Start) && !requested.End.After(window.End)
}

// OverlapsAny returns the first interval in busy that overlaps iv, if any.
func OverlapsAny(iv Interval, busy []Interval) (Interval, bool) {
	for _, b := range busy {
		if Overlaps(iv, b) {
			return b, true
		}
	}
	return Interval{}, false
}

// Aligned reports whether both endpoints fall on granularity boundaries
// (measured from the Unix epoch) and the interval spans at least one slot.
func Aligned(iv Interval, granularity time.Duration) bool {
	if granularity <= 0 {
		return true
	}
	if iv.Start.UnixNano()%int64(granularity) != 0 {
		return false
	}
	if iv.End.UnixNano()%int64(granularity) != 0 {
		return false
	}
	return iv.Duration() >= granularity
}
