package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/storm-tools/storm/internal/config"
	"github.com/storm-tools/storm/internal/stats"
	"github.com/storm-tools/storm/internal/transport"
	"github.com/storm-tools/storm/pkg/types"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if cfg.Mode == config.ModeServe {
		runServer(cfg, logger)
		return
	}
	runCLI(cfg, logger)
}

// runCLI executes one run in the foreground and prints the final report as
// JSON on stdout. SIGINT and SIGTERM stop the run early; the report still
// covers everything dispatched so far.
func runCLI(cfg *config.Config, logger *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := NewEngine(cfg, nil, logger)

	var err error
	switch cfg.Mode {
	case config.ModeDiscover:
		err = engine.StartDiscovery(types.StartDiscoveryRequest{
			URL:            cfg.TargetURL,
			MaxAttempts:    cfg.MaxAttempts,
			KnownAddress:   cfg.KnownAddress,
			AttemptsPerSec: cfg.AttemptsPerSec,
		})
	default:
		err = engine.StartFlood(types.StartFloodRequest{
			Protocol:    cfg.Protocol(),
			URL:         cfg.TargetURL,
			Rate:        cfg.Rate,
			DurationSec: int(cfg.Duration.Seconds()),
			Methods:     cfg.Methods,
		})
	}
	if err != nil {
		logger.Error("failed to start run", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received, stopping run")
		engine.Stop()
	}()

	<-engine.Done()

	status := engine.Status()
	if status.State == types.StateError {
		logger.Error("run failed", slog.String("error", status.Error))
		os.Exit(1)
	}

	var report any
	if flood, ok := engine.FloodReport(); ok {
		report = flood
	} else if discovery, ok := engine.DiscoveryReport(); ok {
		report = discovery
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("failed to encode report", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runServer exposes the engine over HTTP until SIGINT or SIGTERM.
func runServer(cfg *config.Config, logger *slog.Logger) {
	metrics := stats.NewMetrics(nil)
	engine := NewEngine(cfg, metrics, logger)

	server := transport.NewServer(engine, logger)
	defer server.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		engine.Stop()
		server.Close()
		os.Exit(0)
	}()

	logger.Info("starting HTTP server", slog.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, server.Handler()); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
