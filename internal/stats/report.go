package stats

import (
	"sort"
	"time"

	"github.com/storm-tools/storm/pkg/types"
)

// BuildReport derives the immutable run summary from a finalized aggregate.
// It never mutates the aggregate; calling it twice yields identical reports.
func BuildReport(r *Run, targetURL string, protocol types.Protocol, interrupted bool, failureLog string) types.RunReport {
	duration := r.Duration()

	report := types.RunReport{
		TargetURL:     targetURL,
		Protocol:      protocol,
		StartedAt:     r.StartTime,
		CompletedAt:   r.EndTime,
		DurationSec:   duration.Seconds(),
		TotalRequests: r.TotalRequests,
		SuccessCount:  r.SuccessCount,
		FailureCount:  r.FailureCount,

		AvailableMethods:   r.AvailableMethods(),
		UnavailableMethods: r.UnavailableMethods(),
		PerMethod:          make(map[string]types.MethodStats, len(r.PerMethod)),

		Interrupted: interrupted,
		FailureLog:  failureLog,
	}

	if duration > 0 {
		report.AchievedRate = float64(r.TotalRequests) / duration.Seconds()
	}
	if r.TotalRequests > 0 {
		report.SuccessRate = 100 * float64(r.SuccessCount) / float64(r.TotalRequests)
		report.MinLatencyMs = durationMs(r.MinLatency)
		report.MaxLatencyMs = durationMs(r.MaxLatency)
	}
	if r.SuccessCount > 0 {
		report.AvgLatencyMs = durationMs(r.SumLatency) / float64(r.SuccessCount)
	}

	for method, counts := range r.PerMethod {
		ms := types.MethodStats{
			Requests: counts.Requests,
			Errors:   counts.Errors,
		}
		if counts.Requests > 0 {
			ms.SuccessRate = 100 * float64(counts.Requests-counts.Errors) / float64(counts.Requests)
		}
		report.PerMethod[method] = ms
	}

	return report
}

// BuildDiscoveryReport derives the discovery summary. The tried, working and
// failed sets come from the fuzzer's exploration state.
func BuildDiscoveryReport(r *Run, targetURL string, tried, working []string, failed map[string]int64, interrupted bool) types.DiscoveryReport {
	report := types.DiscoveryReport{
		TargetURL:    targetURL,
		StartedAt:    r.StartTime,
		CompletedAt:  r.EndTime,
		TotalQueries: r.TotalRequests,
		SuccessCount: r.SuccessCount,
		FailureCount: r.FailureCount,

		PathsTried:   sortedCopy(tried),
		WorkingPaths: sortedCopy(working),

		Interrupted: interrupted,
	}

	if len(failed) > 0 {
		report.FailedPathCounts = make(map[string]int64, len(failed))
		for path, count := range failed {
			report.FailedPathCounts[path] = count
		}
	}

	if r.TotalRequests > 0 {
		report.MinLatencyMs = durationMs(r.MinLatency)
		report.MaxLatencyMs = durationMs(r.MaxLatency)
	}
	if r.SuccessCount > 0 {
		report.AvgLatencyMs = durationMs(r.SumLatency) / float64(r.SuccessCount)
	}

	return report
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func sortedCopy(values []string) []string {
	copied := append([]string(nil), values...)
	sort.Strings(copied)
	return copied
}
