// Package dispatch drives the rate-limited batch loop of a flood run. Each
// cycle selects a batch of methods, issues the requests concurrently, folds
// every outcome into the run aggregate, then sleeps out the remainder of the
// second. An overrunning cycle rolls straight into the next one; the
// dispatcher never queues missed throughput, so the achieved rate degrades
// gracefully when the server slows down.
package dispatch

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/storm-tools/storm/internal/faillog"
	"github.com/storm-tools/storm/internal/params"
	"github.com/storm-tools/storm/internal/probe"
	"github.com/storm-tools/storm/internal/rpc"
	"github.com/storm-tools/storm/internal/stats"
	"github.com/storm-tools/storm/pkg/types"
)

// Config holds dispatcher settings for one run. Exactly one of Duration and
// Attempts bounds the run: Attempts > 0 selects the attempt-budget mode.
type Config struct {
	Session  *rpc.Session
	Rate     int
	Duration time.Duration
	Attempts int

	FailLog *faillog.Logger
	Metrics *stats.Metrics
	Logger  *slog.Logger

	// OnCycle, when set, receives the counters after each cycle's fold.
	// Called on the dispatch goroutine.
	OnCycle func(total, success, failure int64)
}

// Runner executes the batch loop.
type Runner struct {
	cfg Config
	rng *rand.Rand
}

// New creates a runner. The per-runner random source keeps concurrent runs
// in one process independent.
func New(cfg Config) *Runner {
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		cfg: cfg,
		rng: rand.New(rand.NewSource(rand.Int63())),
	}
}

type callSpec struct {
	method string
	params any
}

// Run drives the cycle loop over the probe-confirmed descriptor set, folding
// into run. It returns whether the run was interrupted by ctx. An empty set
// is a configuration error: no batches are issued.
func (r *Runner) Run(ctx context.Context, available params.Set, run *stats.Run) (bool, error) {
	if len(available) == 0 {
		return false, probe.ErrNoMethodsAvailable
	}

	r.cfg.Metrics.RunStarted(r.cfg.Rate)
	defer r.cfg.Metrics.RunFinished()

	// In-flight batches run to completion even on interrupt; the stop
	// signal is honored between cycles.
	callCtx := context.WithoutCancel(ctx)

	deadline := time.Now().Add(r.cfg.Duration)
	remaining := r.cfg.Attempts
	interrupted := false

	for {
		select {
		case <-ctx.Done():
			interrupted = true
		default:
		}
		if interrupted {
			break
		}

		cycleStart := time.Now()

		batch := r.cfg.Rate
		if r.cfg.Attempts > 0 {
			if remaining <= 0 {
				break
			}
			if batch > remaining {
				batch = remaining
			}
		} else if !cycleStart.Before(deadline) {
			break
		}

		// Parameter generation stays on the loop goroutine; only the
		// network calls run concurrently.
		specs := make([]callSpec, batch)
		for i := range specs {
			d := available[r.rng.Intn(len(available))]
			specs[i] = callSpec{method: d.Name, params: d.Params()}
		}

		outcomes := make([]types.Outcome, batch)
		payloads := make([][]byte, batch)

		var wg sync.WaitGroup
		for i := range specs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i], payloads[i] = r.cfg.Session.Call(callCtx, specs[i].method, specs[i].params)
			}(i)
		}
		wg.Wait()

		for i := range outcomes {
			run.Fold(specs[i].method, outcomes[i])
			r.cfg.Metrics.Observe(specs[i].method, outcomes[i])
			if !outcomes[i].Success && r.cfg.FailLog != nil {
				r.cfg.FailLog.Record(specs[i].method, payloads[i], outcomes[i])
			}
		}
		remaining -= batch

		if r.cfg.OnCycle != nil {
			r.cfg.OnCycle(run.Snapshot())
		}

		elapsed := time.Since(cycleStart)
		if elapsed < time.Second {
			select {
			case <-ctx.Done():
				interrupted = true
			case <-time.After(time.Second - elapsed):
			}
		} else {
			r.cfg.Logger.Debug("cycle overran one second",
				slog.Duration("elapsed", elapsed),
				slog.Int("batch", batch),
			)
		}
	}

	run.Finalize()
	return interrupted, nil
}
