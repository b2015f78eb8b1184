//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// RunStatus is the terminal state of one guarded job execution.
type RunStatus string

const (
	// RunStatusSucceeded means the work returned without error.
	RunStatusSucceeded RunStatus = "succeeded"
	// RunStatusFailed means the work returned an error or panicked.
	RunStatusFailed RunStatus = "failed"
	// RunStatusInterrupted means the work stopped because shutdown was requested.
	RunStatusInterrupted RunStatus = "interrupted"
	// RunStatusSkipped means the work was not started, e.g. inside the blackout window.
	RunStatusSkipped RunStatus = "skipped"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	return string(s)
}

// RunResult describes how a guarded execution ended. A failed run always
// carries Err; Panicked marks failures recovered from a panic.
type RunResult struct {
	Job           string
	Status        RunStatus
	Err           error
	Panicked      bool
	AlertRecorded bool
	StartedAt     time.Time
	Duration      time.Duration
}

// Failed reports whether the run ended in failure.
func (r RunResult) Failed() bool {
	return r.Status == RunStatusFailed
}
