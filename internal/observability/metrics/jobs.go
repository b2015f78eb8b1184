package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/target/eligibility-sync/internal/observability/errors"
	"github.com/target/eligibility-sync/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess     = "success"
	ResultError       = "error"
	ResultInterrupted = "interrupted"
	ResultSkipped     = "skipped"
)

// JobRunMetric captures one guarded job execution.
type JobRunMetric struct {
	Job      string
	Result   string
	Panicked bool
	Duration time.Duration
	Err      error
}

// EmitJobRun emits job run counters and timings.
func EmitJobRun(sink statsd.Sink, in JobRunMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job":    in.Job,
		"result": in.Result,
	}
	if in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
		if in.Panicked {
			tags["panic"] = "true"
		}
	}

	sink.Count("job.run", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, CloneTags(tags))
	}
}

// TickMetric captures one scheduler tick.
type TickMetric struct {
	Due      int
	Ran      int
	Skipped  int
	Duration time.Duration
}

// EmitTick emits scheduler tick metrics.
func EmitTick(sink statsd.Sink, in TickMetric) {
	if sink == nil {
		return
	}
	sink.Count("scheduler.tick", 1, nil)
	sink.Gauge("scheduler.due", float64(in.Due), nil)
	if in.Ran > 0 {
		sink.Count("scheduler.jobs_started", int64(in.Ran), nil)
	}
	if in.Skipped > 0 {
		sink.Count("scheduler.jobs_skipped", int64(in.Skipped), map[string]string{"reason": "blackout"})
	}
	if in.Duration > 0 {
		sink.Timing("scheduler.tick_duration", in.Duration, nil)
	}
}

// FetchMetric captures one fetch attempt against a data source.
type FetchMetric struct {
	DataSource string
	Attempt    int
	Duration   time.Duration
	Err        error
}

// EmitFetchAttempt emits per-attempt fetch metrics.
func EmitFetchAttempt(sink statsd.Sink, in FetchMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"data_source": in.DataSource,
		"attempt":     strconv.Itoa(in.Attempt),
		"result":      ResultSuccess,
	}
	if in.Err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("fetch.attempt", 1, tags)
	if in.Duration > 0 {
		sink.Timing("fetch.duration", in.Duration, CloneTags(tags))
	}
}

// EmitRowsDropped counts rows the pipeline discarded, by reason.
func EmitRowsDropped(sink statsd.Sink, job string, dropped map[string]int) {
	if sink == nil {
		return
	}
	for reason, n := range dropped {
		if n <= 0 {
			continue
		}
		sink.Count("pipeline.rows_dropped", int64(n), map[string]string{"job": job, "reason": reason})
	}
}

// EmitRowsProcessed records pipeline throughput for one run.
func EmitRowsProcessed(sink statsd.Sink, job string, fetched, results int) {
	if sink == nil {
		return
	}
	tags := map[string]string{"job": job}
	sink.Count("pipeline.rows_fetched", int64(fetched), tags)
	sink.Count("pipeline.rows_persisted", int64(results), CloneTags(tags))
}

// AlertMetric captures one alert recording.
type AlertMetric struct {
	Severity  string
	Delivered bool
	Forwarded bool
}

// EmitAlertRecorded emits alert sink metrics.
func EmitAlertRecorded(sink statsd.Sink, in AlertMetric) {
	if sink == nil {
		return
	}
	sink.Count("alert.recorded", 1, map[string]string{
		"severity":  in.Severity,
		"delivered": strconv.FormatBool(in.Delivered),
		"forwarded": strconv.FormatBool(in.Forwarded),
	})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
