// Package transport provides the HTTP control API for server mode.
package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storm-tools/storm/pkg/types"
)

// Input validation limits
const (
	maxDurationSec = 3600
	maxRate        = 10000
	maxAttempts    = 1000000
)

func validateStartFlood(req *types.StartFloodRequest) error {
	switch req.Protocol {
	case types.ProtocolEthereum, types.ProtocolTendermint:
	default:
		return fmt.Errorf("invalid protocol: %s (valid: ethereum, tendermint)", req.Protocol)
	}
	if req.URL == "" {
		return fmt.Errorf("url is required")
	}
	if req.Rate <= 0 || req.Rate > maxRate {
		return fmt.Errorf("rate must be between 1 and %d, got %d", maxRate, req.Rate)
	}
	if req.DurationSec <= 0 || req.DurationSec > maxDurationSec {
		return fmt.Errorf("durationSec must be between 1 and %d, got %d", maxDurationSec, req.DurationSec)
	}
	return nil
}

func validateStartDiscovery(req *types.StartDiscoveryRequest) error {
	if req.URL == "" {
		return fmt.Errorf("url is required")
	}
	if req.MaxAttempts <= 0 || req.MaxAttempts > maxAttempts {
		return fmt.Errorf("maxAttempts must be between 1 and %d, got %d", maxAttempts, req.MaxAttempts)
	}
	if req.AttemptsPerSec < 0 {
		return fmt.Errorf("attemptsPerSec cannot be negative")
	}
	return nil
}

// EngineAPI defines the engine surface the handlers need.
type EngineAPI interface {
	StartFlood(req types.StartFloodRequest) error
	StartDiscovery(req types.StartDiscoveryRequest) error
	Stop()
	Status() types.RunStatus
	FloodReport() (types.RunReport, bool)
	DiscoveryReport() (types.DiscoveryReport, bool)
}

// Server handles control API requests.
type Server struct {
	api      EngineAPI
	logger   *slog.Logger
	wsServer *WebSocketServer
}

// NewServer creates the control server and starts its status broadcaster.
func NewServer(api EngineAPI, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	wsServer := NewWebSocketServer(api, logger)
	wsServer.Start()

	return &Server{
		api:      api,
		logger:   logger,
		wsServer: wsServer,
	}
}

// Close stops the websocket broadcaster.
func (s *Server) Close() {
	s.wsServer.Stop()
}

// Handler returns an http.Handler with all routes configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/start", s.handleStart)
	mux.HandleFunc("/v1/discover", s.handleDiscover)
	mux.HandleFunc("/v1/stop", s.handleStop)
	mux.HandleFunc("/v1/report", s.handleReport)
	mux.HandleFunc("/v1/ws", s.wsServer.Handler())

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.api.Status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.StartFloodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validateStartFlood(&req); err != nil {
		s.writeJSONError(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.api.StartFlood(req); err != nil {
		s.logger.Error("Failed to start flood", slog.String("error", err.Error()))
		s.writeJSONError(w, "Failed to start flood: "+err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.StartDiscoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validateStartDiscovery(&req); err != nil {
		s.writeJSONError(w, "Validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.api.StartDiscovery(req); err != nil {
		s.logger.Error("Failed to start discovery", slog.String("error", err.Error()))
		s.writeJSONError(w, "Failed to start discovery: "+err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.api.Stop()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "stopping"})
}

// reportResponse carries whichever final reports exist.
type reportResponse struct {
	Flood     *types.RunReport       `json:"flood,omitempty"`
	Discovery *types.DiscoveryReport `json:"discovery,omitempty"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var resp reportResponse
	if report, ok := s.api.FloodReport(); ok {
		resp.Flood = &report
	}
	if report, ok := s.api.DiscoveryReport(); ok {
		resp.Discovery = &report
	}
	if resp.Flood == nil && resp.Discovery == nil {
		s.writeJSONError(w, "No completed run", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
