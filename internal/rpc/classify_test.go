package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storm-tools/storm/pkg/types"
)

func TestClassifyTransportErrorWinsOverEverything(t *testing.T) {
	// A transport error present alongside a would-be protocol error body
	// must classify as transport.
	body := []byte(`{"jsonrpc":"2.0","error":{"code":-32601,"message":"not found"},"id":1}`)
	out := Classify(time.Millisecond, 200, body, errors.New("connection refused"), nil)

	if out.Success {
		t.Fatal("expected failure")
	}
	if out.Class != types.ErrClassTransport {
		t.Errorf("expected transport class, got %s", out.Class)
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	out := Classify(time.Millisecond, 500, []byte("internal error"), nil, nil)

	if out.Class != types.ErrClassHTTP {
		t.Fatalf("expected http class, got %s", out.Class)
	}
	var statusErr *HTTPStatusError
	if !errors.As(out.Err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %T", out.Err)
	}
	if statusErr.StatusCode != 500 {
		t.Errorf("expected status 500, got %d", statusErr.StatusCode)
	}
}

func TestClassifyMalformedBodyIsNotProtocolError(t *testing.T) {
	out := Classify(time.Millisecond, 200, []byte("<html>not json</html>"), nil, nil)

	if out.Class != types.ErrClassMalformed {
		t.Errorf("expected malformed class, got %s", out.Class)
	}
	var malformed *MalformedBodyError
	if !errors.As(out.Err, &malformed) {
		t.Errorf("expected MalformedBodyError, got %T", out.Err)
	}
}

func TestClassifyProtocolError(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found"},"id":1}`)
	out := Classify(time.Millisecond, 200, body, nil, nil)

	if out.Class != types.ErrClassProtocol {
		t.Fatalf("expected protocol class, got %s", out.Class)
	}
	var rpcErr *ProtocolError
	if !errors.As(out.Err, &rpcErr) {
		t.Fatalf("expected ProtocolError, got %T", out.Err)
	}
	if rpcErr.Code != -32601 {
		t.Errorf("expected code -32601, got %d", rpcErr.Code)
	}
}

func TestClassifySuccess(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","result":"0x10","id":1}`)
	out := Classify(5*time.Millisecond, 200, body, nil, nil)

	if !out.Success {
		t.Fatalf("expected success, got class %s: %v", out.Class, out.Err)
	}
	if out.Class != types.ErrClassNone {
		t.Errorf("expected empty class, got %s", out.Class)
	}
	if out.Latency != 5*time.Millisecond {
		t.Errorf("expected latency preserved, got %v", out.Latency)
	}
}

func TestClassifyResultCheckRejection(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","result":{"response":{"code":6}},"id":1}`)
	check := func(result json.RawMessage) error {
		return fmt.Errorf("query failed with code 6")
	}
	out := Classify(time.Millisecond, 200, body, nil, check)

	if out.Class != types.ErrClassProtocol {
		t.Errorf("expected protocol class from result check, got %s", out.Class)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","error":{"code":-32000,"message":"oops"},"id":1}`)

	first := Classify(time.Millisecond, 200, body, nil, nil)
	second := Classify(time.Millisecond, 200, body, nil, nil)

	if first.Success != second.Success || first.Class != second.Class {
		t.Error("classification not deterministic for identical input")
	}
	if first.Err.Error() != second.Err.Error() {
		t.Errorf("error detail differs: %q vs %q", first.Err, second.Err)
	}
}
