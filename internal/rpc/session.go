// Package rpc issues single-shot JSON-RPC calls and classifies their
// outcomes. Unlike a general-purpose client there is no retry logic: a flood
// run counts every failure instead of papering over it.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/storm-tools/storm/pkg/types"
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      uint64 `json:"id"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ProtocolError  `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// ProtocolError is a well-formed JSON-RPC error payload.
type ProtocolError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// HTTPStatusError represents a non-2xx HTTP response.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s (body: %s)", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// MalformedBodyError represents a response body that did not parse as a
// JSON-RPC envelope.
type MalformedBodyError struct {
	Body string
}

func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("malformed response body: %s", truncate(e.Body, 200))
}

// ResultCheck inspects a successful envelope's result and may reject it.
// Used by query-style protocols that carry an application status code inside
// the result instead of the JSON-RPC error member. A nil check accepts every
// result.
type ResultCheck func(result json.RawMessage) error

// SessionConfig holds configuration for a Session.
type SessionConfig struct {
	URL     string
	Timeout time.Duration
	Check   ResultCheck
	Logger  *slog.Logger
}

// DefaultTimeout bounds each individual request. A slow server degrades the
// achieved rate rather than stalling a cycle forever.
const DefaultTimeout = 10 * time.Second

// Session is the single outbound connection object of one run. It is safe
// for concurrent use; request ids are monotonically increasing per session.
type Session struct {
	url        string
	httpClient *http.Client
	check      ResultCheck
	nextID     atomic.Uint64
	logger     *slog.Logger
}

// NewSession creates a session with a connection pool sized for flood
// concurrency.
func NewSession(cfg SessionConfig) *Session {
	transport := &http.Transport{
		MaxIdleConns:        4000,
		MaxIdleConnsPerHost: 2000,
		MaxConnsPerHost:     2000,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
		ForceAttemptHTTP2:   false,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		url: cfg.URL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		check:  cfg.Check,
		logger: logger,
	}
}

// URL returns the target endpoint.
func (s *Session) URL() string {
	return s.url
}

// Call issues one JSON-RPC request and classifies the result. The returned
// payload is the exact request body sent, for failure logging. Call never
// returns an unclassified fault: every possible failure mode lands in the
// outcome.
func (s *Session) Call(ctx context.Context, method string, params any) (types.Outcome, []byte) {
	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      s.nextID.Add(1),
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return types.Outcome{
			Class: types.ErrClassTransport,
			Err:   fmt.Errorf("failed to marshal request: %w", err),
		}, nil
	}

	start := time.Now()
	status, body, transportErr := s.post(ctx, payload)
	latency := time.Since(start)

	return Classify(latency, status, body, transportErr, s.check), payload
}

func (s *Session) post(ctx context.Context, payload []byte) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Close releases idle connections held by the session's pool.
func (s *Session) Close() {
	s.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
