package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storm-tools/storm/internal/params"
	"github.com/storm-tools/storm/internal/rpc"
	"github.com/storm-tools/storm/internal/stats"
)

func descriptorSet(names ...string) params.Set {
	set := make(params.Set, len(names))
	for i, name := range names {
		set[i] = params.Descriptor{Name: name, Params: params.EmptyParams}
	}
	return set
}

func TestMethodsPartition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpc.Request
		json.NewDecoder(r.Body).Decode(&req)
		switch req.Method {
		case "eth_blockNumber", "eth_gasPrice":
			w.Write([]byte(`{"jsonrpc":"2.0","result":"0x1","id":1}`))
		default:
			w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found"},"id":1}`))
		}
	}))
	defer server.Close()

	session := rpc.NewSession(rpc.SessionConfig{URL: server.URL, Timeout: time.Second})
	defer session.Close()

	run := stats.NewRun()
	set := descriptorSet("eth_blockNumber", "eth_gasPrice", "eth_mining")

	available, unavailable := Methods(context.Background(), Config{Session: session}, set, run)
	if len(available) != 2 {
		t.Fatalf("expected 2 available, got %d", len(available))
	}
	if len(unavailable) != 1 || unavailable[0] != "eth_mining" {
		t.Errorf("unexpected unavailable set: %v", unavailable)
	}
	if len(run.AvailableMethods()) != 2 {
		t.Errorf("run aggregate not updated: %v", run.AvailableMethods())
	}
}

func TestMethodsTimeoutMarksUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpc.Request
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method == "slow_method" {
			time.Sleep(300 * time.Millisecond)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":"ok","id":1}`))
	}))
	defer server.Close()

	session := rpc.NewSession(rpc.SessionConfig{URL: server.URL, Timeout: time.Second})
	defer session.Close()

	run := stats.NewRun()
	set := descriptorSet("a", "b", "c", "d", "slow_method")

	available, unavailable := Methods(context.Background(), Config{
		Session: session,
		Timeout: 100 * time.Millisecond,
	}, set, run)

	if len(available) != 4 {
		t.Fatalf("expected 4 available, got %d: %v", len(available), unavailable)
	}
	if len(run.AvailableMethods()) != 4 {
		t.Errorf("expected 4 marked available, got %v", run.AvailableMethods())
	}
	if len(unavailable) != 1 || unavailable[0] != "slow_method" {
		t.Errorf("expected slow_method unavailable, got %v", unavailable)
	}
}

func TestMethodsAllUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	session := rpc.NewSession(rpc.SessionConfig{URL: server.URL, Timeout: time.Second})
	defer session.Close()

	run := stats.NewRun()
	available, unavailable := Methods(context.Background(), Config{Session: session}, descriptorSet("x", "y"), run)

	if len(available) != 0 {
		t.Errorf("expected no available methods, got %v", available.Names())
	}
	if len(unavailable) != 2 {
		t.Errorf("expected 2 unavailable, got %v", unavailable)
	}
}
