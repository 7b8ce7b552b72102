// Storm MCP server.
// Exposes storm control tools over MCP stdio transport.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	mcptools "github.com/storm-tools/storm/internal/mcp"
)

func main() {
	stormURL := os.Getenv("STORM_URL")
	if stormURL == "" {
		stormURL = "http://localhost:3001"
	}

	s := server.NewMCPServer(
		"storm",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	client := mcptools.NewClient(stormURL)
	mcptools.RegisterTools(s, client)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
