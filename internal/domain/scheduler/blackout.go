// Package scheduler holds the pure scheduling rules: the daily blackout window
// and the due-time bookkeeping of schedule entries.
package scheduler

import (
	"fmt"
	"time"
)

// BlackoutWindow is a daily range of wall-clock hours during which scheduled
// jobs are skipped. The range is [StartHour, EndHour) and wraps midnight when
// StartHour > EndHour. A window with StartHour == EndHour is disabled.
type BlackoutWindow struct {
	StartHour int
	EndHour   int
	// Location is the wall clock the hours refer to. Nil means time.Local.
	Location *time.Location
}

// NewBlackoutWindow validates the hours and builds a window.
func NewBlackoutWindow(start, end int, loc *time.Location) (BlackoutWindow, error) {
	if start < 0 || start > 23 {
		return BlackoutWindow{}, fmt.Errorf("blackout start hour %d out of range 0-23", start)
	}
	if end < 0 || end > 23 {
		return BlackoutWindow{}, fmt.Errorf("blackout end hour %d out of range 0-23", end)
	}
	return BlackoutWindow{StartHour: start, EndHour: end, Location: loc}, nil
}

// Enabled reports whether the window covers any hour at all.
func (w BlackoutWindow) Enabled() bool {
	return w.StartHour != w.EndHour
}

// Contains reports whether t falls inside the window.
func (w BlackoutWindow) Contains(t time.Time) bool {
	if !w.Enabled() {
		return false
	}
	hour := w.local(t).Hour()
	if w.StartHour < w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}
	return hour >= w.StartHour || hour < w.EndHour
}

// End returns the instant the window containing t closes. It returns t itself
// when t is outside the window.
func (w BlackoutWindow) End(t time.Time) time.Time {
	if !w.Contains(t) {
		return t
	}
	lt := w.local(t)
	end := time.Date(lt.Year(), lt.Month(), lt.Day(), w.EndHour, 0, 0, 0, lt.Location())
	if !end.After(lt) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// Remaining returns how long until the window containing t closes, or zero
// when t is outside the window.
func (w BlackoutWindow) Remaining(t time.Time) time.Duration {
	if !w.Contains(t) {
		return 0
	}
	return w.End(t).Sub(t)
}

// String renders the window as "22:00-02:00".
func (w BlackoutWindow) String() string {
	if !w.Enabled() {
		return "disabled"
	}
	return fmt.Sprintf("%02d:00-%02d:00", w.StartHour, w.EndHour)
}

func (w BlackoutWindow) local(t time.Time) time.Time {
	if w.Location == nil {
		return t.Local()
	}
	return t.In(w.Location)
}
