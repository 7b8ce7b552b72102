// Package fuzz explores the ABCI query path namespace of a Tendermint
// endpoint. It validates the target first, then spends an attempt budget on
// randomized path and payload combinations, tracking which templates the
// server accepts.
package fuzz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/storm-tools/storm/internal/corpus"
	"github.com/storm-tools/storm/internal/faillog"
	"github.com/storm-tools/storm/internal/rpc"
	"github.com/storm-tools/storm/internal/stats"
	"github.com/storm-tools/storm/pkg/types"
)

// Validation failures abort discovery before any attempt is spent.
var (
	ErrEndpointValidation = errors.New("endpoint failed validation, not a Tendermint RPC endpoint")
	ErrQueryUnsupported   = errors.New("abci_query method is not supported by this endpoint")
)

// QueryFailedError is an application-level rejection: the query envelope was
// well formed but the response carried a non-zero ABCI code.
type QueryFailedError struct {
	Code int64
	Log  string
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query failed with code %d: %s", e.Code, e.Log)
}

// QueryResultCheck rejects abci_query results whose inner response code is
// non-zero. Wire it as the session's ResultCheck for discovery runs.
func QueryResultCheck(result json.RawMessage) error {
	var parsed struct {
		Response struct {
			Code int64  `json:"code"`
			Log  string `json:"log"`
		} `json:"response"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		// Not a query-shaped result; leave it to the caller.
		return nil
	}
	if parsed.Response.Code != 0 {
		return &QueryFailedError{Code: parsed.Response.Code, Log: parsed.Response.Log}
	}
	return nil
}

// State tracks template exploration across one discovery run. A template may
// accumulate both successes and failures over repeated draws; flaky paths
// are expected.
type State struct {
	pathsTried       map[string]struct{}
	successfulPaths  map[string]struct{}
	failedPathCounts map[string]int64
}

func newState() *State {
	return &State{
		pathsTried:       make(map[string]struct{}),
		successfulPaths:  make(map[string]struct{}),
		failedPathCounts: make(map[string]int64),
	}
}

func (s *State) recordAttempt(template string, success bool) {
	s.pathsTried[template] = struct{}{}
	if success {
		s.successfulPaths[template] = struct{}{}
	} else {
		s.failedPathCounts[template]++
	}
}

func (s *State) tried(template string) bool {
	_, ok := s.pathsTried[template]
	return ok
}

// Tried returns every template attempted at least once.
func (s *State) Tried() []string {
	return keys(s.pathsTried)
}

// Working returns the templates the server accepted at least once.
func (s *State) Working() []string {
	return keys(s.successfulPaths)
}

// FailedCounts returns the per-template failure counts.
func (s *State) FailedCounts() map[string]int64 {
	copied := make(map[string]int64, len(s.failedPathCounts))
	for template, count := range s.failedPathCounts {
		copied[template] = count
	}
	return copied
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Config holds discovery settings.
type Config struct {
	Session *rpc.Session
	Corpus  corpus.Provider

	// KnownAddress seeds the first substitution of each address-bearing
	// template with a value known to exist on chain.
	KnownAddress string

	// Templates overrides DefaultTemplates when non-empty.
	Templates []string

	// MaxAttemptsPerSec paces the attempt loop. Zero means unpaced.
	MaxAttemptsPerSec float64

	FailLog *faillog.Logger
	Logger  *slog.Logger

	// OnAttempt, when set, receives the counters after each attempt.
	// Called on the discovery goroutine.
	OnAttempt func(total, success, failure int64, working int)
}

// Fuzzer runs path discovery against one endpoint.
type Fuzzer struct {
	cfg         Config
	templates   []string
	state       *State
	run         *stats.Run
	rng         *rand.Rand
	interrupted bool
}

// New creates a fuzzer. The corpus defaults to the built-in pools and the
// template set to DefaultTemplates.
func New(cfg Config) *Fuzzer {
	if cfg.Corpus == nil {
		cfg.Corpus = corpus.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	templates := cfg.Templates
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}
	return &Fuzzer{
		cfg:       cfg,
		templates: templates,
		state:     newState(),
		run:       stats.NewRun(),
		rng:       rand.New(rand.NewSource(rand.Int63())),
	}
}

// Discover validates the endpoint and then spends up to maxAttempts on
// randomized queries. Validation failure returns a configuration error with
// the state still empty; interrupts finalize the partial state.
func (f *Fuzzer) Discover(ctx context.Context, maxAttempts int) (*State, error) {
	if err := f.validateEndpoint(ctx); err != nil {
		f.run.Finalize()
		return f.state, err
	}
	if err := f.probeQuery(ctx); err != nil {
		f.run.Finalize()
		return f.state, err
	}

	f.cfg.Logger.Info("starting path discovery",
		slog.String("target", f.cfg.Session.URL()),
		slog.Int("maxAttempts", maxAttempts),
		slog.Int("templates", len(f.templates)),
	)

	var limiter *rate.Limiter
	if f.cfg.MaxAttemptsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(f.cfg.MaxAttemptsPerSec), 1)
	}

	for i := 0; i < maxAttempts; i++ {
		if ctx.Err() != nil {
			f.interrupted = true
			break
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				f.interrupted = true
				break
			}
		}
		f.attempt(ctx)
	}

	f.run.Finalize()
	return f.state, nil
}

func (f *Fuzzer) attempt(ctx context.Context) {
	template := f.templates[f.rng.Intn(len(f.templates))]
	path := f.substitute(template)

	queryParams := map[string]any{
		"path":   path,
		"data":   buildQueryData(path, f.cfg.Corpus),
		"height": f.randomHeight(),
		"prove":  f.randomProve(),
	}

	out, payload := f.cfg.Session.Call(ctx, "abci_query", queryParams)

	f.run.Fold(template, out)
	f.state.recordAttempt(template, out.Success)

	if f.cfg.OnAttempt != nil {
		total, success, failure := f.run.Snapshot()
		f.cfg.OnAttempt(total, success, failure, len(f.state.successfulPaths))
	}

	if out.Success {
		f.cfg.Logger.Info("working path found", slog.String("template", template))
		return
	}
	if f.cfg.FailLog != nil {
		f.cfg.FailLog.Record(template, payload, out)
	}
}

// substitute fills parameterized segments. An address-bearing template that
// has never been tried gets the known-good address first, so a live value is
// always probed before random corpus draws.
func (f *Fuzzer) substitute(template string) string {
	path := template
	if strings.Contains(path, "{address}") {
		addr := f.cfg.Corpus.Pick(corpus.PoolCosmosAddresses)
		if f.cfg.KnownAddress != "" && !f.state.tried(template) {
			addr = f.cfg.KnownAddress
		}
		path = strings.ReplaceAll(path, "{address}", addr)
	}
	if strings.Contains(path, "{cid}") {
		path = strings.ReplaceAll(path, "{cid}", f.cfg.Corpus.Pick(corpus.PoolCIDs))
	}
	return path
}

func (f *Fuzzer) randomHeight() string {
	heights := f.cfg.Corpus.Values(corpus.PoolHeights)
	if len(heights) == 0 {
		return "0"
	}
	h := heights[f.rng.Intn(len(heights))]
	if h == "latest" {
		h = "0"
	}
	return h
}

func (f *Fuzzer) randomProve() string {
	if f.rng.Intn(2) == 0 {
		return "true"
	}
	return "false"
}

// validateEndpoint confirms the target answers the Tendermint RPC envelope.
// A status call that succeeds or returns a protocol error passes; otherwise
// a fallback abci_info probe gets one more chance before discovery aborts.
func (f *Fuzzer) validateEndpoint(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, _ := f.cfg.Session.Call(probeCtx, "status", []any{})
	if out.Success || out.Class == types.ErrClassProtocol {
		return nil
	}

	out, _ = f.cfg.Session.Call(probeCtx, "abci_info", []any{})
	if out.Success {
		return nil
	}

	f.cfg.Logger.Error("endpoint validation failed",
		slog.String("class", string(out.Class)),
		slog.String("error", out.Err.Error()),
	)
	return ErrEndpointValidation
}

// probeQuery confirms the abci_query method exists at all. A protocol error
// naming an unknown method aborts; any other error still proves the method
// is routed and discovery proceeds.
func (f *Fuzzer) probeQuery(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	queryParams := map[string]any{
		"path":   "/app/version",
		"data":   "",
		"height": "0",
		"prove":  "false",
	}
	out, _ := f.cfg.Session.Call(probeCtx, "abci_query", queryParams)

	if out.Success {
		return nil
	}

	var queryErr *QueryFailedError
	if errors.As(out.Err, &queryErr) {
		// The method answered with an application code; it exists.
		return nil
	}

	var protoErr *rpc.ProtocolError
	if errors.As(out.Err, &protoErr) {
		if strings.Contains(strings.ToLower(protoErr.Message), "not found") {
			return ErrQueryUnsupported
		}
		return nil
	}

	return ErrQueryUnsupported
}

// Interrupted reports whether the last Discover stopped on a cancel signal.
func (f *Fuzzer) Interrupted() bool {
	return f.interrupted
}

// Report derives the discovery summary from the finalized run.
func (f *Fuzzer) Report() types.DiscoveryReport {
	return stats.BuildDiscoveryReport(
		f.run,
		f.cfg.Session.URL(),
		f.state.Tried(),
		f.state.Working(),
		f.state.FailedCounts(),
		f.interrupted,
	)
}
