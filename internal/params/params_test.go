package params

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/storm-tools/storm/internal/corpus"
)

func TestFilterEmptyAllowKeepsAll(t *testing.T) {
	set := Ethereum(corpus.Default())

	filtered, err := set.Filter(nil)
	if err != nil {
		t.Fatalf("Filter(nil) returned error: %v", err)
	}
	if len(filtered) != len(set) {
		t.Errorf("expected %d descriptors, got %d", len(set), len(filtered))
	}
}

func TestFilterSubset(t *testing.T) {
	set := Ethereum(corpus.Default())

	filtered, err := set.Filter([]string{"eth_blockNumber", "eth_gasPrice"})
	if err != nil {
		t.Fatalf("Filter returned error: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(filtered))
	}
	if filtered[0].Name != "eth_blockNumber" || filtered[1].Name != "eth_gasPrice" {
		t.Errorf("unexpected filtered names: %v", filtered.Names())
	}
}

func TestFilterUnknownMethod(t *testing.T) {
	set := Ethereum(corpus.Default())

	if _, err := set.Filter([]string{"eth_blockNumber", "eth_bogus"}); err == nil {
		t.Error("expected error for unknown method, got nil")
	}
}

func TestEthereumGeneratorsMarshal(t *testing.T) {
	set := Ethereum(corpus.Default())
	if len(set) == 0 {
		t.Fatal("empty ethereum set")
	}

	for _, d := range set {
		for i := 0; i < 10; i++ {
			p := d.Params()
			if _, ok := p.([]any); !ok {
				t.Fatalf("%s: expected positional params, got %T", d.Name, p)
			}
			if _, err := json.Marshal(p); err != nil {
				t.Errorf("%s: params do not marshal: %v", d.Name, err)
			}
		}
	}
}

func TestTendermintGeneratorsMarshal(t *testing.T) {
	set := Tendermint(corpus.Default())
	if len(set) == 0 {
		t.Fatal("empty tendermint set")
	}

	for _, d := range set {
		p := d.Params()
		if _, err := json.Marshal(p); err != nil {
			t.Errorf("%s: params do not marshal: %v", d.Name, err)
		}
	}
}

func TestAbciQueryShape(t *testing.T) {
	set := Tendermint(corpus.Default())

	var gen Generator
	for _, d := range set {
		if d.Name == "abci_query" {
			gen = d.Params
		}
	}
	if gen == nil {
		t.Fatal("abci_query missing from tendermint set")
	}

	p, ok := gen().(map[string]any)
	if !ok {
		t.Fatalf("expected named params, got %T", gen())
	}
	for _, key := range []string{"path", "data", "height", "prove"} {
		if _, ok := p[key]; !ok {
			t.Errorf("abci_query params missing %q", key)
		}
	}
	if _, err := base64.StdEncoding.DecodeString(p["data"].(string)); err != nil {
		t.Errorf("abci_query data is not base64: %v", err)
	}
}

func TestBroadcastTxBase64(t *testing.T) {
	set := Tendermint(corpus.Default())

	for _, d := range set {
		if d.Name != "broadcast_tx_sync" {
			continue
		}
		p := d.Params().(map[string]any)
		raw, err := base64.StdEncoding.DecodeString(p["tx"].(string))
		if err != nil {
			t.Fatalf("tx is not base64: %v", err)
		}
		if len(raw) < 32 || len(raw) > 128 {
			t.Errorf("tx length %d outside [32,128]", len(raw))
		}
	}
}
