// Package stats aggregates per-operation results into run-level summaries.
package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1us floor, 1 hour ceiling, 3
// significant figures.
const (
	histMin     = 1
	histMax     = 3600000000
	histSigFigs = 3
)

// Sample is one operation's contribution to the run summary.
type Sample struct {
	Verb      string
	Completed bool
	Failed    bool
	Latency   time.Duration
	Checks    int64
}

// Distribution describes the latency spread of completed operations.
type Distribution struct {
	Min  time.Duration `json:"minNs"`
	Max  time.Duration `json:"maxNs"`
	Mean time.Duration `json:"meanNs"`
	P50  time.Duration `json:"p50Ns"`
	P90  time.Duration `json:"p90Ns"`
	P95  time.Duration `json:"p95Ns"`
	P99  time.Duration `json:"p99Ns"`
}

// Summary is the aggregate outcome of a run.
type Summary struct {
	// Duration is the wall time from engine creation to the run's end.
	Duration time.Duration `json:"durationNs"`

	// Operations counts every spawned operation, whatever its fate.
	Operations int `json:"operations"`

	Completed int `json:"completed"`
	Failed    int `json:"failed"`

	// Pending counts operations still unterminated when the run was
	// sealed, as happens on stop or abort.
	Pending int `json:"pending"`

	ByVerb map[string]int `json:"byVerb"`

	// Checks is the total number of unconverged content checks across all
	// operations.
	Checks int64 `json:"checks"`

	// MeanLatency divides the summed latency of completed operations by
	// the total operation count. Operations that never converged
	// contribute zero to the numerator but still widen the denominator.
	MeanLatency time.Duration `json:"meanLatencyNs"`

	// Latency is the distribution over completed operations only.
	Latency Distribution `json:"latency"`
}

// Summarize folds operation samples into a run summary.
func Summarize(duration time.Duration, samples []Sample) *Summary {
	s := &Summary{
		Duration: duration,
		ByVerb:   make(map[string]int),
	}

	hist := hdrhistogram.New(histMin, histMax, histSigFigs)
	var sum time.Duration

	for _, sm := range samples {
		s.Operations++
		s.ByVerb[sm.Verb]++
		s.Checks += sm.Checks

		switch {
		case sm.Completed:
			s.Completed++
			sum += sm.Latency
			hist.RecordValue(clampMicros(sm.Latency))
		case sm.Failed:
			s.Failed++
		default:
			s.Pending++
		}
	}

	if s.Operations > 0 {
		s.MeanLatency = sum / time.Duration(s.Operations)
	}
	if s.Completed > 0 {
		s.Latency = Distribution{
			Min:  time.Duration(hist.Min()) * time.Microsecond,
			Max:  time.Duration(hist.Max()) * time.Microsecond,
			Mean: time.Duration(hist.Mean() * float64(time.Microsecond)),
			P50:  quantile(hist, 50),
			P90:  quantile(hist, 90),
			P95:  quantile(hist, 95),
			P99:  quantile(hist, 99),
		}
	}
	return s
}

// clampMicros converts a latency to microseconds within histogram bounds.
func clampMicros(d time.Duration) int64 {
	micros := d.Microseconds()
	if micros < histMin {
		return histMin
	}
	if micros > histMax {
		return histMax
	}
	return micros
}

func quantile(h *hdrhistogram.Histogram, q float64) time.Duration {
	return time.Duration(h.ValueAtQuantile(q)) * time.Microsecond
}
