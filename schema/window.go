package schema

import "time"

// Day is the length of one calendar day used for window math.
const Day = 24 * time.Hour

// TimeWindow is the half-open range [Start, End). A zero bound is unbounded.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TrailingWindow returns the window of the given number of days ending at end.
func TrailingWindow(end time.Time, days int) TimeWindow {
	return TimeWindow{Start: end.Add(-time.Duration(days) * Day), End: end}
}

// Contains reports whether t falls in the window.
func (w TimeWindow) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// IsBounded reports whether both ends are set.
func (w TimeWindow) IsBounded() bool {
	return !w.Start.IsZero() && !w.End.IsZero()
}

// Days returns the window length in days, or 0 for an unbounded window.
func (w TimeWindow) Days() float64 {
	if !w.IsBounded() {
		return 0
	}
	return w.End.Sub(w.Start).Hours() / 24
}

// Split cuts the window at t into two disjoint windows.
func (w TimeWindow) Split(t time.Time) (TimeWindow, TimeWindow) {
	return TimeWindow{Start: w.Start, End: t}, TimeWindow{Start: t, End: w.End}
}
