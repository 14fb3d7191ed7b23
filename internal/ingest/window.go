package ingest

import "time"

// Window is the inclusive date range a run collects. A nil bound is
// unbounded on that side.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// BeforeStart reports whether t has crossed below the lower boundary. For
// newest-first platforms this is the natural early-stop condition.
func (w Window) BeforeStart(t time.Time) bool {
	return w.Start != nil && t.Before(*w.Start)
}
