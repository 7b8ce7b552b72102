package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/storm-tools/storm/pkg/types"
)

func success(latency time.Duration) types.Outcome {
	return types.Outcome{Success: true, Latency: latency}
}

func failure(latency time.Duration, class types.ErrorClass) types.Outcome {
	return types.Outcome{Latency: latency, Class: class}
}

func TestFoldCountInvariant(t *testing.T) {
	run := NewRun()

	run.Fold("eth_blockNumber", success(10*time.Millisecond))
	run.Fold("eth_blockNumber", failure(20*time.Millisecond, types.ErrClassHTTP))
	run.Fold("eth_gasPrice", success(5*time.Millisecond))

	if run.SuccessCount+run.FailureCount != run.TotalRequests {
		t.Errorf("successCount(%d) + failureCount(%d) != totalRequests(%d)",
			run.SuccessCount, run.FailureCount, run.TotalRequests)
	}
	if run.TotalRequests != 3 {
		t.Errorf("expected 3 total, got %d", run.TotalRequests)
	}
}

func TestFoldLatencyBounds(t *testing.T) {
	run := NewRun()

	run.Fold("a", success(30*time.Millisecond))
	run.Fold("a", failure(5*time.Millisecond, types.ErrClassTransport))
	run.Fold("a", success(100*time.Millisecond))

	if run.MinLatency != 5*time.Millisecond {
		t.Errorf("expected min 5ms over all outcomes, got %v", run.MinLatency)
	}
	if run.MaxLatency != 100*time.Millisecond {
		t.Errorf("expected max 100ms, got %v", run.MaxLatency)
	}
	if run.MinLatency > run.MaxLatency {
		t.Error("min latency exceeds max latency")
	}
	// Sum accumulates on successes only.
	if run.SumLatency != 130*time.Millisecond {
		t.Errorf("expected sum 130ms, got %v", run.SumLatency)
	}
}

func TestLatencySentinelsWhenEmpty(t *testing.T) {
	run := NewRun()

	if run.MinLatency != unsetLatency {
		t.Errorf("expected unset min sentinel, got %v", run.MinLatency)
	}
	if run.MaxLatency != 0 {
		t.Errorf("expected zero max, got %v", run.MaxLatency)
	}

	run.Finalize()
	report := BuildReport(run, "http://localhost:8545", types.ProtocolEthereum, false, "")
	if report.MinLatencyMs != 0 || report.MaxLatencyMs != 0 || report.AvgLatencyMs != 0 {
		t.Errorf("expected zero latencies in empty report, got min=%v max=%v avg=%v",
			report.MinLatencyMs, report.MaxLatencyMs, report.AvgLatencyMs)
	}
	if report.SuccessRate != 0 {
		t.Errorf("expected 0%% success rate with no requests, got %v", report.SuccessRate)
	}
}

func TestPerMethodCounts(t *testing.T) {
	run := NewRun()

	run.Fold("eth_call", success(time.Millisecond))
	run.Fold("eth_call", failure(time.Millisecond, types.ErrClassProtocol))
	run.Fold("eth_call", failure(time.Millisecond, types.ErrClassProtocol))

	counts := run.PerMethod["eth_call"]
	if counts == nil {
		t.Fatal("missing per-method entry")
	}
	if counts.Requests != 3 || counts.Errors != 2 {
		t.Errorf("expected 3 requests / 2 errors, got %d/%d", counts.Requests, counts.Errors)
	}
	if counts.Requests < counts.Errors {
		t.Error("per-method error count exceeds request count")
	}
}

func TestBuildReportIdempotent(t *testing.T) {
	run := NewRun()
	run.MarkAvailability([]string{"eth_blockNumber", "eth_gasPrice"}, []string{"eth_syncing"})
	run.Fold("eth_blockNumber", success(12*time.Millisecond))
	run.Fold("eth_gasPrice", failure(40*time.Millisecond, types.ErrClassHTTP))
	run.Finalize()

	first := BuildReport(run, "http://localhost:8545", types.ProtocolEthereum, false, "log.txt")
	second := BuildReport(run, "http://localhost:8545", types.ProtocolEthereum, false, "log.txt")

	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	secondJSON, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(firstJSON) != string(secondJSON) {
		t.Error("report builder is not idempotent over a finalized run")
	}
}

func TestReportRates(t *testing.T) {
	run := NewRun()
	for i := 0; i < 6; i++ {
		run.Fold("m", success(10 * time.Millisecond))
	}
	for i := 0; i < 4; i++ {
		run.Fold("m", failure(10*time.Millisecond, types.ErrClassTransport))
	}
	run.Finalize()

	report := BuildReport(run, "http://target", types.ProtocolTendermint, false, "")
	if report.SuccessRate != 60 {
		t.Errorf("expected 60%% success rate, got %v", report.SuccessRate)
	}
	if report.AvgLatencyMs != 10 {
		t.Errorf("expected 10ms average over successes, got %v", report.AvgLatencyMs)
	}
	if report.PerMethod["m"].SuccessRate != 60 {
		t.Errorf("expected per-method 60%%, got %v", report.PerMethod["m"].SuccessRate)
	}
}

func TestBuildDiscoveryReport(t *testing.T) {
	run := NewRun()
	run.Fold("abci_query", success(8*time.Millisecond))
	run.Fold("abci_query", failure(2*time.Millisecond, types.ErrClassProtocol))
	run.Finalize()

	tried := []string{"custom/bank/AllBalances", "custom/acc/Account"}
	working := []string{"custom/bank/AllBalances"}
	failed := map[string]int64{"custom/acc/Account": 1}

	report := BuildDiscoveryReport(run, "http://target", tried, working, failed, false)
	if len(report.PathsTried) != 2 {
		t.Errorf("expected 2 tried paths, got %d", len(report.PathsTried))
	}
	if len(report.WorkingPaths) != 1 || report.WorkingPaths[0] != "custom/bank/AllBalances" {
		t.Errorf("unexpected working paths: %v", report.WorkingPaths)
	}
	if report.FailedPathCounts["custom/acc/Account"] != 1 {
		t.Errorf("unexpected failed counts: %v", report.FailedPathCounts)
	}
	if report.TotalQueries != 2 || report.SuccessCount != 1 {
		t.Errorf("unexpected totals: %d/%d", report.TotalQueries, report.SuccessCount)
	}
}
