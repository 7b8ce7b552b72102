package params

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/storm-tools/storm/internal/corpus"
)

// Ethereum builds the descriptor set for an Ethereum JSON-RPC endpoint.
// Parameters are positional lists; sample values come from the corpus pools.
func Ethereum(c corpus.Provider) Set {
	g := &ethGen{c: c, src: newSource()}

	return Set{
		// web3 namespace
		{Name: "web3_clientVersion", Params: EmptyParams},
		{Name: "web3_sha3", Params: g.sha3},

		// net namespace
		{Name: "net_version", Params: EmptyParams},
		{Name: "net_peerCount", Params: EmptyParams},
		{Name: "net_listening", Params: EmptyParams},

		// eth namespace
		{Name: "eth_protocolVersion", Params: EmptyParams},
		{Name: "eth_syncing", Params: EmptyParams},
		{Name: "eth_coinbase", Params: EmptyParams},
		{Name: "eth_mining", Params: EmptyParams},
		{Name: "eth_hashrate", Params: EmptyParams},
		{Name: "eth_gasPrice", Params: EmptyParams},
		{Name: "eth_accounts", Params: EmptyParams},
		{Name: "eth_blockNumber", Params: EmptyParams},
		{Name: "eth_getBalance", Params: g.addressAndBlock},
		{Name: "eth_getStorageAt", Params: g.storageAt},
		{Name: "eth_getTransactionCount", Params: g.addressAndBlock},
		{Name: "eth_getBlockTransactionCountByHash", Params: g.blockHash},
		{Name: "eth_getBlockTransactionCountByNumber", Params: g.blockTag},
		{Name: "eth_getUncleCountByBlockHash", Params: g.blockHash},
		{Name: "eth_getUncleCountByBlockNumber", Params: g.blockTag},
		{Name: "eth_getCode", Params: g.addressAndBlock},
		{Name: "eth_call", Params: g.call},
		{Name: "eth_estimateGas", Params: g.estimateGas},
		{Name: "eth_getBlockByHash", Params: g.blockHashFull},
		{Name: "eth_getBlockByNumber", Params: g.blockTagFull},
		{Name: "eth_getTransactionByHash", Params: g.txHash},
		{Name: "eth_getTransactionByBlockHashAndIndex", Params: g.blockHashIndex},
		{Name: "eth_getTransactionByBlockNumberAndIndex", Params: g.blockTagIndex},
		{Name: "eth_getTransactionReceipt", Params: g.txHash},
		{Name: "eth_getUncleByBlockHashAndIndex", Params: g.uncleByHash},
		{Name: "eth_getUncleByBlockNumberAndIndex", Params: g.uncleByTag},
		{Name: "eth_newFilter", Params: g.newFilter},
		{Name: "eth_newBlockFilter", Params: EmptyParams},
		{Name: "eth_newPendingTransactionFilter", Params: EmptyParams},
		{Name: "eth_uninstallFilter", Params: g.filterID},
		{Name: "eth_getFilterChanges", Params: g.filterID},
		{Name: "eth_getFilterLogs", Params: g.filterID},
	}
}

type ethGen struct {
	c   corpus.Provider
	src *source
}

// hexData returns "0x"-prefixed random bytes in the given length range.
func (g *ethGen) hexData(minLen, maxLen int) string {
	return hexutil.Encode(g.src.bytes(g.src.rangeInt(minLen, maxLen)))
}

func (g *ethGen) sha3() any {
	return []any{g.hexData(2, 100)}
}

func (g *ethGen) addressAndBlock() any {
	return []any{g.c.Pick(corpus.PoolEthAddresses), g.c.Pick(corpus.PoolBlockTags)}
}

func (g *ethGen) storageAt() any {
	return []any{
		g.c.Pick(corpus.PoolEthAddresses),
		hexutil.Encode(g.src.bytes(32)),
		g.c.Pick(corpus.PoolBlockTags),
	}
}

func (g *ethGen) blockHash() any {
	return []any{g.c.Pick(corpus.PoolBlockHashes)}
}

func (g *ethGen) blockTag() any {
	return []any{g.c.Pick(corpus.PoolBlockTags)}
}

func (g *ethGen) txHash() any {
	return []any{g.c.Pick(corpus.PoolTxHashes)}
}

func (g *ethGen) filterID() any {
	return []any{g.c.Pick(corpus.PoolFilterIDs)}
}

func (g *ethGen) blockHashFull() any {
	return []any{g.c.Pick(corpus.PoolBlockHashes), g.src.boolean()}
}

func (g *ethGen) blockTagFull() any {
	return []any{g.c.Pick(corpus.PoolBlockTags), g.src.boolean()}
}

func (g *ethGen) blockHashIndex() any {
	return []any{
		g.c.Pick(corpus.PoolBlockHashes),
		hexutil.EncodeUint64(uint64(g.src.intn(501))),
	}
}

func (g *ethGen) blockTagIndex() any {
	return []any{
		g.c.Pick(corpus.PoolBlockTags),
		hexutil.EncodeUint64(uint64(g.src.intn(501))),
	}
}

func (g *ethGen) uncleByHash() any {
	return []any{
		g.c.Pick(corpus.PoolBlockHashes),
		hexutil.EncodeUint64(uint64(g.src.intn(11))),
	}
}

func (g *ethGen) uncleByTag() any {
	return []any{
		g.c.Pick(corpus.PoolBlockTags),
		hexutil.EncodeUint64(uint64(g.src.intn(11))),
	}
}

// callObject builds a random transaction object shared by eth_call and
// eth_estimateGas. Fields beyond to/from are included probabilistically so
// the flood also exercises sparse objects.
func (g *ethGen) callObject() map[string]any {
	tx := map[string]any{
		"to":   g.c.Pick(corpus.PoolEthAddresses),
		"from": g.c.Pick(corpus.PoolEthAddresses),
	}
	if g.src.intn(2) == 0 {
		tx["data"] = g.hexData(2, 100)
	}
	if g.src.intn(10) < 3 {
		tx["gas"] = hexutil.EncodeUint64(uint64(g.src.rangeInt(21000, 1000000)))
	}
	if g.src.intn(10) < 3 {
		tx["gasPrice"] = hexutil.EncodeUint64(uint64(g.src.rangeInt(1, 100)) * 1e9)
	}
	if g.src.intn(10) < 3 {
		tx["value"] = hexutil.EncodeUint64(uint64(g.src.intn(11)) * 1e18)
	}
	return tx
}

func (g *ethGen) call() any {
	return []any{g.callObject(), g.c.Pick(corpus.PoolBlockTags)}
}

func (g *ethGen) estimateGas() any {
	return []any{g.callObject()}
}

func (g *ethGen) newFilter() any {
	filter := map[string]any{}
	if g.src.intn(10) < 7 {
		filter["fromBlock"] = g.c.Pick(corpus.PoolBlockTags)
	}
	if g.src.intn(10) < 7 {
		filter["toBlock"] = g.c.Pick(corpus.PoolBlockTags)
	}
	if g.src.intn(10) < 7 {
		if g.src.boolean() {
			filter["address"] = g.c.Pick(corpus.PoolEthAddresses)
		} else {
			n := g.src.rangeInt(1, 3)
			addrs := make([]string, n)
			for i := range addrs {
				addrs[i] = g.c.Pick(corpus.PoolEthAddresses)
			}
			filter["address"] = addrs
		}
	}
	if g.src.boolean() {
		n := g.src.rangeInt(1, 4)
		topics := make([]string, n)
		for i := range topics {
			topics[i] = hexutil.Encode(g.src.bytes(32))
		}
		filter["topics"] = topics
	}
	return []any{filter}
}
