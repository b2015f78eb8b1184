package scheduler

import (
	"errors"
	"time"

	"github.com/target/eligibility-sync/internal/domain/model"
)

// Entry binds a job to its cadence. Only the scheduler loop mutates NextDue.
type Entry struct {
	Job      model.JobDescriptor
	Interval time.Duration
	NextDue  time.Time
}

// NewEntry creates an entry whose first due time is one interval after start.
func NewEntry(job model.JobDescriptor, interval time.Duration, start time.Time) (*Entry, error) {
	if interval <= 0 {
		return nil, errors.New("schedule interval must be positive")
	}
	return &Entry{Job: job, Interval: interval, NextDue: start.Add(interval)}, nil
}

// Due reports whether the entry should be considered at now.
func (e *Entry) Due(now time.Time) bool {
	return !now.Before(e.NextDue)
}

// Advance moves the due time one interval past now. It is called after every
// invocation attempt, including skipped ones.
func (e *Entry) Advance(now time.Time) {
	e.NextDue = now.Add(e.Interval)
}

// Schedule is the ordered set of entries evaluated on each tick.
type Schedule struct {
	entries []*Entry
}

// NewSchedule builds entries for jobs sharing one interval, in job order.
func NewSchedule(jobs []model.JobDescriptor, interval time.Duration, start time.Time) (*Schedule, error) {
	entries := make([]*Entry, 0, len(jobs))
	for _, job := range jobs {
		entry, err := NewEntry(job, interval, start)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return &Schedule{entries: entries}, nil
}

// Entries returns the entries in evaluation order.
func (s *Schedule) Entries() []*Entry {
	if s == nil {
		return nil
	}
	return s.entries
}

// Due returns the entries due at now, in evaluation order.
func (s *Schedule) Due(now time.Time) []*Entry {
	if s == nil {
		return nil
	}
	var due []*Entry
	for _, e := range s.entries {
		if e.Due(now) {
			due = append(due, e)
		}
	}
	return due
}

// NextDue returns the earliest due time across entries, or the zero time when empty.
func (s *Schedule) NextDue() time.Time {
	var next time.Time
	for _, e := range s.Entries() {
		if next.IsZero() || e.NextDue.Before(next) {
			next = e.NextDue
		}
	}
	return next
}
