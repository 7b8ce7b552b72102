package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/storm-tools/storm/pkg/types"
)

func TestValidateStartFlood(t *testing.T) {
	tests := []struct {
		name    string
		req     types.StartFloodRequest
		wantErr string // empty = no error expected
	}{
		{
			name: "valid ethereum flood",
			req: types.StartFloodRequest{
				Protocol:    types.ProtocolEthereum,
				URL:         "http://localhost:8545",
				Rate:        100,
				DurationSec: 60,
			},
			wantErr: "",
		},
		{
			name: "invalid protocol",
			req: types.StartFloodRequest{
				Protocol:    "solana",
				URL:         "http://localhost:8545",
				Rate:        100,
				DurationSec: 60,
			},
			wantErr: "invalid protocol",
		},
		{
			name: "missing url",
			req: types.StartFloodRequest{
				Protocol:    types.ProtocolTendermint,
				Rate:        100,
				DurationSec: 60,
			},
			wantErr: "url is required",
		},
		{
			name: "zero rate",
			req: types.StartFloodRequest{
				Protocol:    types.ProtocolEthereum,
				URL:         "http://localhost:8545",
				DurationSec: 60,
			},
			wantErr: "rate must be between",
		},
		{
			name: "duration exceeds max",
			req: types.StartFloodRequest{
				Protocol:    types.ProtocolEthereum,
				URL:         "http://localhost:8545",
				Rate:        100,
				DurationSec: 7200,
			},
			wantErr: "durationSec must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateStartFlood(&tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateStartDiscovery(t *testing.T) {
	tests := []struct {
		name    string
		req     types.StartDiscoveryRequest
		wantErr string
	}{
		{
			name:    "valid",
			req:     types.StartDiscoveryRequest{URL: "http://localhost:26657", MaxAttempts: 500},
			wantErr: "",
		},
		{
			name:    "missing url",
			req:     types.StartDiscoveryRequest{MaxAttempts: 500},
			wantErr: "url is required",
		},
		{
			name:    "zero attempts",
			req:     types.StartDiscoveryRequest{URL: "http://localhost:26657"},
			wantErr: "maxAttempts must be between",
		},
		{
			name:    "negative pace",
			req:     types.StartDiscoveryRequest{URL: "http://localhost:26657", MaxAttempts: 10, AttemptsPerSec: -5},
			wantErr: "attemptsPerSec cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateStartDiscovery(&tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// fakeEngine implements EngineAPI for handler tests.
type fakeEngine struct {
	started    []types.StartFloodRequest
	discovered []types.StartDiscoveryRequest
	stopped    bool
	status     types.RunStatus
	flood      *types.RunReport
	discovery  *types.DiscoveryReport
}

func (f *fakeEngine) StartFlood(req types.StartFloodRequest) error {
	f.started = append(f.started, req)
	return nil
}

func (f *fakeEngine) StartDiscovery(req types.StartDiscoveryRequest) error {
	f.discovered = append(f.discovered, req)
	return nil
}

func (f *fakeEngine) Stop() { f.stopped = true }

func (f *fakeEngine) Status() types.RunStatus { return f.status }

func (f *fakeEngine) FloodReport() (types.RunReport, bool) {
	if f.flood == nil {
		return types.RunReport{}, false
	}
	return *f.flood, true
}

func (f *fakeEngine) DiscoveryReport() (types.DiscoveryReport, bool) {
	if f.discovery == nil {
		return types.DiscoveryReport{}, false
	}
	return *f.discovery, true
}

func newTestServer(t *testing.T, engine *fakeEngine) *httptest.Server {
	t.Helper()
	srv := NewServer(engine, nil)
	t.Cleanup(srv.Close)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHandleStart(t *testing.T) {
	engine := &fakeEngine{}
	ts := newTestServer(t, engine)

	body, _ := json.Marshal(types.StartFloodRequest{
		Protocol:    types.ProtocolEthereum,
		URL:         "http://localhost:8545",
		Rate:        10,
		DurationSec: 30,
	})
	resp, err := http.Post(ts.URL+"/v1/start", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(engine.started) != 1 || engine.started[0].Rate != 10 {
		t.Errorf("engine did not receive the start request: %+v", engine.started)
	}
}

func TestHandleStartRejectsInvalid(t *testing.T) {
	engine := &fakeEngine{}
	ts := newTestServer(t, engine)

	resp, err := http.Post(ts.URL+"/v1/start", "application/json", strings.NewReader(`{"protocol":"ethereum"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if len(engine.started) != 0 {
		t.Error("invalid request must not reach the engine")
	}
}

func TestHandleStopAndStatus(t *testing.T) {
	engine := &fakeEngine{status: types.RunStatus{State: types.StateRunning, TotalRequests: 42}}
	ts := newTestServer(t, engine)

	resp, err := http.Post(ts.URL+"/v1/stop", "application/json", nil)
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	resp.Body.Close()
	if !engine.stopped {
		t.Error("stop did not reach the engine")
	}

	resp, err = http.Get(ts.URL + "/v1/status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	defer resp.Body.Close()

	var status types.RunStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.State != types.StateRunning || status.TotalRequests != 42 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestHandleReport(t *testing.T) {
	engine := &fakeEngine{}
	ts := newTestServer(t, engine)

	resp, err := http.Get(ts.URL + "/v1/report")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 before any run, got %d", resp.StatusCode)
	}

	engine.flood = &types.RunReport{TargetURL: "http://localhost:8545", TotalRequests: 100}
	resp, err = http.Get(ts.URL + "/v1/report")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	defer resp.Body.Close()

	var parsed reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if parsed.Flood == nil || parsed.Flood.TotalRequests != 100 {
		t.Errorf("unexpected report: %+v", parsed)
	}
}

func TestHandleMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{})

	resp, err := http.Get(ts.URL + "/v1/start")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}
