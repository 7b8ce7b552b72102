// Package stats accumulates per-run request statistics and derives the final
// run report. A Run has exactly one writer context at a time, the dispatch
// loop, so folding needs no locks; read access for live status goes through
// Snapshot which the owner publishes explicitly.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/storm-tools/storm/pkg/types"
)

// unsetLatency is the sentinel for min latency before any request completes.
const unsetLatency = time.Duration(math.MaxInt64)

// MethodCounts tracks requests and errors for one method.
type MethodCounts struct {
	Requests int64
	Errors   int64
}

// Run is the mutable statistics aggregate of one run. Created at run start,
// mutated exclusively by the dispatch loop, finalized at run end.
type Run struct {
	TotalRequests int64
	SuccessCount  int64
	FailureCount  int64

	MinLatency time.Duration
	MaxLatency time.Duration
	SumLatency time.Duration // accumulated on successful requests only

	PerMethod map[string]*MethodCounts

	StartTime time.Time
	EndTime   time.Time

	availableMethods   []string
	unavailableMethods []string
	finalized          bool
}

// NewRun creates a statistics aggregate with the start timestamp set to now.
func NewRun() *Run {
	return &Run{
		MinLatency: unsetLatency,
		PerMethod:  make(map[string]*MethodCounts),
		StartTime:  time.Now(),
	}
}

// MarkAvailability records the probe partition. Called once before the first
// fold.
func (r *Run) MarkAvailability(available, unavailable []string) {
	r.availableMethods = append([]string(nil), available...)
	r.unavailableMethods = append([]string(nil), unavailable...)
	sort.Strings(r.availableMethods)
	sort.Strings(r.unavailableMethods)
}

// AvailableMethods returns the sorted probe-confirmed method names.
func (r *Run) AvailableMethods() []string {
	return r.availableMethods
}

// UnavailableMethods returns the sorted names rejected during probing.
func (r *Run) UnavailableMethods() []string {
	return r.unavailableMethods
}

// Fold merges one classified outcome. Min and max latency cover every
// completed request; the latency sum only accumulates on success, so the
// average reflects successful round trips.
func (r *Run) Fold(method string, out types.Outcome) {
	r.TotalRequests++

	if out.Latency < r.MinLatency {
		r.MinLatency = out.Latency
	}
	if out.Latency > r.MaxLatency {
		r.MaxLatency = out.Latency
	}

	counts := r.PerMethod[method]
	if counts == nil {
		counts = &MethodCounts{}
		r.PerMethod[method] = counts
	}
	counts.Requests++

	if out.Success {
		r.SuccessCount++
		r.SumLatency += out.Latency
	} else {
		r.FailureCount++
		counts.Errors++
	}
}

// Finalize sets the end timestamp. Folding after Finalize is a programming
// error; the aggregate is read-only from here on.
func (r *Run) Finalize() {
	if r.finalized {
		return
	}
	r.EndTime = time.Now()
	r.finalized = true
}

// Duration returns the elapsed run time. Before Finalize it measures against
// the current time.
func (r *Run) Duration() time.Duration {
	if r.finalized {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// Snapshot captures the counters for live status reporting.
func (r *Run) Snapshot() (total, success, failure int64) {
	return r.TotalRequests, r.SuccessCount, r.FailureCount
}
