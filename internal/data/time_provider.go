package data

import (
	"sync"
	"time"
)

// TimeProvider supplies the current time to fetchers, snapshot writers and the scheduler.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the system clock.
type RealTimeProvider struct{}

// Now returns the current system time.
func (RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider is a manually advanced clock for tests. It is safe for
// concurrent use so a scheduler goroutine can read it while a test advances it.
type FixedTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedTimeProvider returns a clock stopped at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{now: t}
}

// Now returns the stopped time.
func (f *FixedTimeProvider) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// SetTime moves the clock to t.
func (f *FixedTimeProvider) SetTime(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// AddTime advances the clock by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
