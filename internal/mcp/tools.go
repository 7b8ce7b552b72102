package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all storm tools on the MCP server.
func RegisterTools(s *server.MCPServer, client *Client) {
	registerStatus(s, client)
	registerStartFlood(s, client)
	registerStartDiscovery(s, client)
	registerStop(s, client)
	registerReport(s, client)
}

func registerStatus(s *server.MCPServer, client *Client) {
	tool := gomcp.NewTool("storm_status",
		gomcp.WithDescription("Get current storm engine status: run state, mode, request counts and elapsed time."),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		raw, err := client.Get("/v1/status")
		if err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("Storm server unreachable: %v\n\nIs it running? Try: storm serve", err)), nil
		}
		return gomcp.NewToolResultText(formatStatus(raw)), nil
	})
}

func registerStartFlood(s *server.MCPServer, client *Client) {
	tool := gomcp.NewTool("storm_start_flood",
		gomcp.WithDescription("Start a JSON-RPC flood run against a target node. This is a MUTATING operation that generates real load."),
		gomcp.WithString("protocol",
			gomcp.Required(),
			gomcp.Description("Target protocol: ethereum or tendermint"),
		),
		gomcp.WithString("url",
			gomcp.Required(),
			gomcp.Description("Target RPC endpoint URL"),
		),
		gomcp.WithNumber("rate",
			gomcp.Required(),
			gomcp.Description("Requests per second (1-10000)"),
		),
		gomcp.WithNumber("duration_sec",
			gomcp.Required(),
			gomcp.Description("Run duration in seconds (1-3600)"),
		),
		gomcp.WithString("methods",
			gomcp.Description("Comma-separated method allow-list (default: all known)"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		protocol, err := req.RequireString("protocol")
		if err != nil {
			return gomcp.NewToolResultError("protocol is required"), nil
		}
		url, err := req.RequireString("url")
		if err != nil {
			return gomcp.NewToolResultError("url is required"), nil
		}
		rate := req.GetInt("rate", 0)
		if rate <= 0 {
			return gomcp.NewToolResultError("rate must be positive"), nil
		}
		durationSec := req.GetInt("duration_sec", 0)
		if durationSec <= 0 {
			return gomcp.NewToolResultError("duration_sec must be positive"), nil
		}

		payload := map[string]any{
			"protocol":    protocol,
			"url":         url,
			"rate":        rate,
			"durationSec": durationSec,
		}
		if v := req.GetString("methods", ""); v != "" {
			payload["methods"] = splitList(v)
		}

		if _, err := client.Post("/v1/start", payload); err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("Failed to start flood: %v", err)), nil
		}
		return gomcp.NewToolResultText(fmt.Sprintf("Flood started: %d req/s against %s for %ds.", rate, url, durationSec)), nil
	})
}

func registerStartDiscovery(s *server.MCPServer, client *Client) {
	tool := gomcp.NewTool("storm_start_discovery",
		gomcp.WithDescription("Start ABCI query path discovery against a Tendermint node. This is a MUTATING operation."),
		gomcp.WithString("url",
			gomcp.Required(),
			gomcp.Description("Target Tendermint RPC endpoint URL"),
		),
		gomcp.WithNumber("max_attempts",
			gomcp.Description("Maximum query attempts (default 1000)"),
		),
		gomcp.WithString("known_address",
			gomcp.Description("Known-good address to seed address-bearing queries"),
		),
		gomcp.WithNumber("attempts_per_sec",
			gomcp.Description("Maximum attempts per second (0 = unpaced)"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		url, err := req.RequireString("url")
		if err != nil {
			return gomcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]any{
			"url":         url,
			"maxAttempts": req.GetInt("max_attempts", 1000),
		}
		if v := req.GetString("known_address", ""); v != "" {
			payload["knownAddress"] = v
		}
		if v := req.GetFloat("attempts_per_sec", 0); v > 0 {
			payload["attemptsPerSec"] = v
		}

		if _, err := client.Post("/v1/discover", payload); err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("Failed to start discovery: %v", err)), nil
		}
		return gomcp.NewToolResultText(fmt.Sprintf("Path discovery started against %s.", url)), nil
	})
}

func registerStop(s *server.MCPServer, client *Client) {
	tool := gomcp.NewTool("storm_stop",
		gomcp.WithDescription("Stop the active run. The current batch finishes and the partial report stays available."),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		if _, err := client.Post("/v1/stop", nil); err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("Failed to stop: %v", err)), nil
		}
		return gomcp.NewToolResultText("Stop requested. The run will finish its current batch."), nil
	})
}

func registerReport(s *server.MCPServer, client *Client) {
	tool := gomcp.NewTool("storm_report",
		gomcp.WithDescription("Get the final report of the last completed run: counts, rates, latency stats, per-method breakdown or discovered paths."),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		raw, err := client.Get("/v1/report")
		if err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("No report available: %v", err)), nil
		}
		return gomcp.NewToolResultText(formatReport(raw)), nil
	})
}

func formatStatus(raw json.RawMessage) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Sprintf("Error parsing status: %v", err)
	}

	lines := joinLines(
		section("Storm Status"),
		kv("State", getStr(m, "state")),
		kv("Mode", getStr(m, "mode")),
		kv("Target", getStr(m, "targetUrl")),
		kv("Requests", fmt.Sprintf("%.0f", getNum(m, "totalRequests"))),
		kv("Successes", fmt.Sprintf("%.0f", getNum(m, "successCount"))),
		kv("Failures", fmt.Sprintf("%.0f", getNum(m, "failureCount"))),
		kv("Elapsed", fmt.Sprintf("%.1fs", getNum(m, "elapsedMs")/1000)),
	)
	if err := getStr(m, "error"); err != "" {
		lines += "\n" + kv("Error", err)
	}
	return lines
}

func formatReport(raw json.RawMessage) string {
	var resp struct {
		Flood     map[string]any `json:"flood"`
		Discovery map[string]any `json:"discovery"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Sprintf("Error parsing report: %v", err)
	}

	var parts []string
	if m := resp.Flood; m != nil {
		parts = append(parts, joinLines(
			section("Flood Report"),
			kv("Target", getStr(m, "targetUrl")),
			kv("Protocol", getStr(m, "protocol")),
			kv("Requests", fmt.Sprintf("%.0f", getNum(m, "totalRequests"))),
			kv("Success Rate", formatPct(getNum(m, "successRate"))),
			kv("Achieved Rate", fmt.Sprintf("%.1f req/s", getNum(m, "achievedRate"))),
			kv("Min Latency", formatMs(getNum(m, "minLatencyMs"))),
			kv("Avg Latency", formatMs(getNum(m, "avgLatencyMs"))),
			kv("Max Latency", formatMs(getNum(m, "maxLatencyMs"))),
		))
	}
	if m := resp.Discovery; m != nil {
		lines := joinLines(
			section("Discovery Report"),
			kv("Target", getStr(m, "targetUrl")),
			kv("Queries", fmt.Sprintf("%.0f", getNum(m, "totalQueries"))),
		)
		if paths, ok := m["workingPaths"].([]any); ok {
			lines += "\n" + kv("Working Paths", len(paths))
			for _, p := range paths {
				lines += fmt.Sprintf("\n  %v", p)
			}
		}
		parts = append(parts, lines)
	}
	if len(parts) == 0 {
		return "No completed run."
	}
	return joinLines(parts...)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
