// Package types contains public API types for storm.
// These types form the external interface and must remain backwards-compatible.
package types

import "time"

// Protocol identifies the target RPC dialect.
type Protocol string

const (
	ProtocolEthereum   Protocol = "ethereum"
	ProtocolTendermint Protocol = "tendermint"
)

// RunState represents the current engine state.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateProbing   RunState = "probing"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateError     RunState = "error"
)

// ErrorClass tags the failure category of a classified outcome.
// Transport, HTTP, malformed and protocol failures are logged differently
// and must stay distinguishable in the failure log.
type ErrorClass string

const (
	ErrClassNone      ErrorClass = ""
	ErrClassTransport ErrorClass = "transport"
	ErrClassHTTP      ErrorClass = "http"
	ErrClassMalformed ErrorClass = "malformed"
	ErrClassProtocol  ErrorClass = "protocol"
)

// Outcome is the classified result of one dispatched request.
// It is produced once per request and never mutated afterwards.
type Outcome struct {
	Success bool
	Latency time.Duration
	Class   ErrorClass
	Err     error // nil on success
}

// MethodStats is the per-method breakdown in a run report.
type MethodStats struct {
	Requests    int64   `json:"requests"`
	Errors      int64   `json:"errors"`
	SuccessRate float64 `json:"successRate"` // percent
}

// RunReport is the immutable summary of a completed flood run.
type RunReport struct {
	TargetURL   string    `json:"targetUrl"`
	Protocol    Protocol  `json:"protocol"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	DurationSec float64   `json:"durationSec"`

	TotalRequests int64 `json:"totalRequests"`
	SuccessCount  int64 `json:"successCount"`
	FailureCount  int64 `json:"failureCount"`

	AchievedRate float64 `json:"achievedRate"` // requests per second
	SuccessRate  float64 `json:"successRate"`  // percent, 0 when no requests

	// Latencies in milliseconds. Min/Max are 0 when no request completed.
	MinLatencyMs float64 `json:"minLatencyMs"`
	MaxLatencyMs float64 `json:"maxLatencyMs"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`

	AvailableMethods   []string               `json:"availableMethods"`
	UnavailableMethods []string               `json:"unavailableMethods,omitempty"`
	PerMethod          map[string]MethodStats `json:"perMethod"`

	Interrupted bool   `json:"interrupted,omitempty"`
	FailureLog  string `json:"failureLog,omitempty"` // path of the failed-request log
}

// DiscoveryReport is the immutable summary of a path-discovery run.
type DiscoveryReport struct {
	TargetURL   string    `json:"targetUrl"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`

	TotalQueries int64 `json:"totalQueries"`
	SuccessCount int64 `json:"successCount"`
	FailureCount int64 `json:"failureCount"`

	PathsTried       []string         `json:"pathsTried"`
	WorkingPaths     []string         `json:"workingPaths"`
	FailedPathCounts map[string]int64 `json:"failedPathCounts,omitempty"`

	MinLatencyMs float64 `json:"minLatencyMs"`
	MaxLatencyMs float64 `json:"maxLatencyMs"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`

	Interrupted bool `json:"interrupted,omitempty"`
}

// StartFloodRequest is the control API request to start a flood run.
type StartFloodRequest struct {
	Protocol    Protocol `json:"protocol"`
	URL         string   `json:"url"`
	Rate        int      `json:"rate"`
	DurationSec int      `json:"durationSec"`
	Methods     []string `json:"methods,omitempty"` // allow-list, empty = all known
}

// StartDiscoveryRequest is the control API request to start a discovery run.
type StartDiscoveryRequest struct {
	URL            string  `json:"url"`
	MaxAttempts    int     `json:"maxAttempts"`
	KnownAddress   string  `json:"knownAddress,omitempty"`
	AttemptsPerSec float64 `json:"attemptsPerSec,omitempty"` // 0 = unpaced
}

// RunStatus is the live engine status streamed over the control API.
type RunStatus struct {
	State         RunState `json:"state"`
	Mode          string   `json:"mode,omitempty"` // "flood" or "discovery"
	TargetURL     string   `json:"targetUrl,omitempty"`
	ElapsedMs     int64    `json:"elapsedMs"`
	TotalRequests int64    `json:"totalRequests"`
	SuccessCount  int64    `json:"successCount"`
	FailureCount  int64    `json:"failureCount"`
	TargetRate    int      `json:"targetRate,omitempty"`
	WorkingPaths  int      `json:"workingPaths,omitempty"`
	Error         string   `json:"error,omitempty"`
}
