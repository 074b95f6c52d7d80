package model

import "time"

// Interval is a half-open time range [Start, End). A booking that ends at T
// and one that starts at T occupy disjoint intervals and never conflict.
type Interval struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Overlaps reports whether two intervals share at least one instant:
// a.Start < b.End && b.Start < a.End. Every conflict check in the system
// must evaluate this exact predicate; the SQL form in the booking
// repository mirrors it.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Valid reports whether the interval is well-formed (Start strictly before End).
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Contains reports whether t falls inside the half-open interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
