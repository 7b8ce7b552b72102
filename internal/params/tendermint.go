package params

import (
	"encoding/base64"
	"fmt"

	"github.com/storm-tools/storm/internal/corpus"
)

// Tendermint builds the descriptor set for a Tendermint RPC endpoint.
// Parameters are named objects with string-encoded numbers, matching the
// Tendermint JSON-RPC convention.
func Tendermint(c corpus.Provider) Set {
	g := &tmGen{c: c, src: newSource()}

	return Set{
		{Name: "abci_info", Params: EmptyParams},
		{Name: "abci_query", Params: g.abciQuery},
		{Name: "broadcast_tx_sync", Params: g.broadcastTx},
		{Name: "broadcast_tx_async", Params: g.broadcastTx},
		{Name: "broadcast_tx_commit", Params: g.broadcastTx},
		{Name: "block", Params: g.height},
		{Name: "block_results", Params: g.height},
		{Name: "blockchain", Params: g.heightRange},
		{Name: "consensus_state", Params: EmptyParams},
		{Name: "status", Params: EmptyParams},
		{Name: "net_info", Params: EmptyParams},
		{Name: "validators", Params: g.validators},
		{Name: "tx", Params: g.tx},
		{Name: "tx_search", Params: g.txSearch},
		{Name: "health", Params: EmptyParams},
		{Name: "commit", Params: g.height},
		{Name: "genesis", Params: EmptyParams},
		{Name: "num_unconfirmed_txs", Params: EmptyParams},
		{Name: "unconfirmed_txs", Params: g.unconfirmedTxs},
	}
}

type tmGen struct {
	c   corpus.Provider
	src *source
}

func (g *tmGen) randB64(minLen, maxLen int) string {
	return base64.StdEncoding.EncodeToString(g.src.bytes(g.src.rangeInt(minLen, maxLen)))
}

func (g *tmGen) abciQuery() any {
	return map[string]any{
		"path":   g.c.Pick(corpus.PoolStorePaths),
		"data":   g.randB64(1, 32),
		"height": fmt.Sprintf("%d", g.src.rangeInt(1, 1000)),
		"prove":  g.src.boolean(),
	}
}

func (g *tmGen) broadcastTx() any {
	return map[string]any{
		"tx": g.randB64(32, 128),
	}
}

func (g *tmGen) height() any {
	return map[string]any{
		"height": fmt.Sprintf("%d", g.src.rangeInt(1, 1000)),
	}
}

func (g *tmGen) heightRange() any {
	minHeight := g.src.rangeInt(1, 500)
	maxHeight := minHeight + g.src.rangeInt(1, 500)
	return map[string]any{
		"minHeight": fmt.Sprintf("%d", minHeight),
		"maxHeight": fmt.Sprintf("%d", maxHeight),
	}
}

func (g *tmGen) validators() any {
	return map[string]any{
		"height":   fmt.Sprintf("%d", g.src.rangeInt(1, 1000)),
		"page":     fmt.Sprintf("%d", g.src.rangeInt(1, 5)),
		"per_page": fmt.Sprintf("%d", g.src.rangeInt(10, 100)),
	}
}

func (g *tmGen) tx() any {
	return map[string]any{
		"hash":  base64.StdEncoding.EncodeToString(g.src.bytes(32)),
		"prove": g.src.boolean(),
	}
}

func (g *tmGen) txSearch() any {
	order := "asc"
	if g.src.boolean() {
		order = "desc"
	}
	return map[string]any{
		"query":    fmt.Sprintf("tx.height=%d", g.src.rangeInt(1, 1000)),
		"prove":    g.src.boolean(),
		"page":     fmt.Sprintf("%d", g.src.rangeInt(1, 5)),
		"per_page": fmt.Sprintf("%d", g.src.rangeInt(10, 100)),
		"order_by": order,
	}
}

func (g *tmGen) unconfirmedTxs() any {
	return map[string]any{
		"limit": fmt.Sprintf("%d", g.src.rangeInt(10, 100)),
	}
}
