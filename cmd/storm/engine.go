package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/storm-tools/storm/internal/config"
	"github.com/storm-tools/storm/internal/corpus"
	"github.com/storm-tools/storm/internal/dispatch"
	"github.com/storm-tools/storm/internal/faillog"
	"github.com/storm-tools/storm/internal/fuzz"
	"github.com/storm-tools/storm/internal/params"
	"github.com/storm-tools/storm/internal/probe"
	"github.com/storm-tools/storm/internal/rpc"
	"github.com/storm-tools/storm/internal/stats"
	"github.com/storm-tools/storm/pkg/types"
)

// Engine owns one run at a time and exposes the control surface the HTTP
// transport and the CLI share. It implements transport.EngineAPI.
type Engine struct {
	logDir     string
	timeout    time.Duration
	corpusPath string
	metrics    *stats.Metrics
	logger     *slog.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	done       chan struct{}
	state      types.RunState
	mode       string
	targetURL  string
	targetRate int
	startedAt  time.Time
	runErr     string

	floodReport     *types.RunReport
	discoveryReport *types.DiscoveryReport

	// Live counters written by the run goroutine, read by Status.
	total   atomic.Int64
	success atomic.Int64
	failure atomic.Int64
	working atomic.Int64
}

// NewEngine creates an idle engine.
func NewEngine(cfg *config.Config, metrics *stats.Metrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logDir:     cfg.LogDir,
		timeout:    cfg.Timeout,
		corpusPath: cfg.CorpusPath,
		metrics:    metrics,
		logger:     logger,
		state:      types.StateIdle,
	}
}

// begin transitions to a new run or reports the engine busy.
func (e *Engine) begin(mode, url string, rate int) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == types.StateProbing || e.state == types.StateRunning {
		return nil, fmt.Errorf("a %s run is already active", e.mode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.state = types.StateProbing
	e.mode = mode
	e.targetURL = url
	e.targetRate = rate
	e.startedAt = time.Now()
	e.runErr = ""
	e.total.Store(0)
	e.success.Store(0)
	e.failure.Store(0)
	e.working.Store(0)
	return ctx, nil
}

func (e *Engine) finish(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.state = types.StateError
		e.runErr = err.Error()
	} else {
		e.state = types.StateCompleted
	}
	e.cancel = nil
	close(e.done)
}

// StartFlood launches a flood run asynchronously.
func (e *Engine) StartFlood(req types.StartFloodRequest) error {
	ctx, err := e.begin("flood", req.URL, req.Rate)
	if err != nil {
		return err
	}

	go func() {
		report, err := e.executeFlood(ctx, req)
		if err == nil {
			e.mu.Lock()
			e.floodReport = &report
			e.mu.Unlock()
		}
		e.finish(err)
	}()
	return nil
}

// StartDiscovery launches a path-discovery run asynchronously.
func (e *Engine) StartDiscovery(req types.StartDiscoveryRequest) error {
	ctx, err := e.begin("discovery", req.URL, 0)
	if err != nil {
		return err
	}

	go func() {
		report, err := e.executeDiscovery(ctx, req)
		if err == nil {
			e.mu.Lock()
			e.discoveryReport = &report
			e.mu.Unlock()
		}
		e.finish(err)
	}()
	return nil
}

// Stop cancels the active run. The current batch finishes first.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Done returns a channel closed when the current run finishes. Only valid
// after a successful Start call.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Status reports the live engine state.
func (e *Engine) Status() types.RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := types.RunStatus{
		State:         e.state,
		Mode:          e.mode,
		TargetURL:     e.targetURL,
		TargetRate:    e.targetRate,
		TotalRequests: e.total.Load(),
		SuccessCount:  e.success.Load(),
		FailureCount:  e.failure.Load(),
		WorkingPaths:  int(e.working.Load()),
		Error:         e.runErr,
	}
	if !e.startedAt.IsZero() {
		status.ElapsedMs = time.Since(e.startedAt).Milliseconds()
	}
	return status
}

// FloodReport returns the last completed flood report.
func (e *Engine) FloodReport() (types.RunReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.floodReport == nil {
		return types.RunReport{}, false
	}
	return *e.floodReport, true
}

// DiscoveryReport returns the last completed discovery report.
func (e *Engine) DiscoveryReport() (types.DiscoveryReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discoveryReport == nil {
		return types.DiscoveryReport{}, false
	}
	return *e.discoveryReport, true
}

func (e *Engine) loadCorpus() (corpus.Provider, error) {
	if e.corpusPath == "" {
		return corpus.Default(), nil
	}
	return corpus.Load(e.corpusPath)
}

func (e *Engine) setState(state types.RunState) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

func (e *Engine) executeFlood(ctx context.Context, req types.StartFloodRequest) (types.RunReport, error) {
	pools, err := e.loadCorpus()
	if err != nil {
		return types.RunReport{}, err
	}

	var set params.Set
	var logMode string
	switch req.Protocol {
	case types.ProtocolTendermint:
		set = params.Tendermint(pools)
		logMode = "abci"
	default:
		set = params.Ethereum(pools)
		logMode = "eth"
	}

	set, err = set.Filter(req.Methods)
	if err != nil {
		return types.RunReport{}, err
	}

	session := rpc.NewSession(rpc.SessionConfig{
		URL:     req.URL,
		Timeout: e.timeout,
		Logger:  e.logger,
	})
	defer session.Close()

	flog, err := faillog.New(e.logDir, logMode, req.URL, req.Methods, e.logger)
	if err != nil {
		return types.RunReport{}, err
	}
	defer flog.Close()

	run := stats.NewRun()
	available, unavailable := probe.Methods(ctx, probe.Config{
		Session: session,
		Logger:  e.logger,
	}, set, run)
	if len(unavailable) > 0 {
		e.logger.Warn("some methods are unavailable", slog.Any("methods", unavailable))
	}

	e.setState(types.StateRunning)

	runner := dispatch.New(dispatch.Config{
		Session:  session,
		Rate:     req.Rate,
		Duration: time.Duration(req.DurationSec) * time.Second,
		FailLog:  flog,
		Metrics:  e.metrics,
		Logger:   e.logger,
		OnCycle: func(total, success, failure int64) {
			e.total.Store(total)
			e.success.Store(success)
			e.failure.Store(failure)
		},
	})

	interrupted, err := runner.Run(ctx, available, run)
	if err != nil {
		return types.RunReport{}, err
	}

	return stats.BuildReport(run, req.URL, req.Protocol, interrupted, flog.FilePath()), nil
}

func (e *Engine) executeDiscovery(ctx context.Context, req types.StartDiscoveryRequest) (types.DiscoveryReport, error) {
	pools, err := e.loadCorpus()
	if err != nil {
		return types.DiscoveryReport{}, err
	}

	session := rpc.NewSession(rpc.SessionConfig{
		URL:     req.URL,
		Timeout: e.timeout,
		Check:   fuzz.QueryResultCheck,
		Logger:  e.logger,
	})
	defer session.Close()

	flog, err := faillog.New(e.logDir, "fuzz", req.URL, nil, e.logger)
	if err != nil {
		return types.DiscoveryReport{}, err
	}
	defer flog.Close()

	e.setState(types.StateRunning)

	fuzzer := fuzz.New(fuzz.Config{
		Session:           session,
		Corpus:            pools,
		KnownAddress:      req.KnownAddress,
		MaxAttemptsPerSec: req.AttemptsPerSec,
		FailLog:           flog,
		Logger:            e.logger,
		OnAttempt: func(total, success, failure int64, working int) {
			e.total.Store(total)
			e.success.Store(success)
			e.failure.Store(failure)
			e.working.Store(int64(working))
		},
	})

	if _, err := fuzzer.Discover(ctx, req.MaxAttempts); err != nil {
		return types.DiscoveryReport{}, err
	}
	return fuzzer.Report(), nil
}
