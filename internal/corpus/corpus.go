// Package corpus provides named sample-value pools used to seed request
// parameters. Pools are plain configuration data: the engine only ever asks
// for "a value from pool X" and never embeds domain samples itself.
package corpus

import (
	"fmt"
	"math/rand"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Well-known pool names. Custom pools may be added via YAML files.
const (
	PoolEthAddresses    = "ethAddresses"
	PoolBlockHashes     = "blockHashes"
	PoolTxHashes        = "txHashes"
	PoolBlockTags       = "blockTags"
	PoolFilterIDs       = "filterIds"
	PoolCosmosAddresses = "cosmosAddresses"
	PoolCIDs            = "cids"
	PoolDenoms          = "denoms"
	PoolProposalIDs     = "proposalIds"
	PoolHeights         = "heights"
	PoolStorePaths      = "storePaths"
)

// Provider supplies candidate values for a named pool.
type Provider interface {
	// Values returns all candidates of a pool, nil when the pool is unknown.
	Values(pool string) []string

	// Pick returns one candidate uniformly at random, "" for unknown pools.
	Pick(pool string) string
}

// Static is a Provider backed by an in-memory pool map.
type Static struct {
	mu    sync.Mutex
	pools map[string][]string
	rng   *rand.Rand
}

// NewStatic creates a provider from the given pools.
func NewStatic(pools map[string][]string) *Static {
	copied := make(map[string][]string, len(pools))
	for name, values := range pools {
		copied[name] = append([]string(nil), values...)
	}
	return &Static{
		pools: copied,
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
}

// Default returns the built-in sample pools.
func Default() *Static {
	return NewStatic(map[string][]string{
		PoolEthAddresses: {
			"0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
			"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
			"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"0x0000000000000000000000000000000000000000",
		},
		PoolBlockHashes: {
			"0xd4e56740f876aef8c010b86a40d5f56745a118d0906a34e69aec8c0db1cb8fa3",
			"0x88e96d4537bea4d9c05d12549907b32561d3bf31f45aae734cdc119f13406cb6",
			"0xb495a1d7e6663152ae92708da4843337b958146015a2802f4193a410044698c9",
			"0x0000000000000000000000000000000000000000000000000000000000000000",
		},
		PoolTxHashes: {
			"0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060",
			"0x2cc6c94c21685b7e0f8ddabf277a5ccf98db157c62619cde8baea696a74ed18e",
			"0x0000000000000000000000000000000000000000000000000000000000000000",
		},
		PoolBlockTags: {
			"0x0", "0x1", "0xa", "0x100", "0x1000000",
			"latest", "pending", "earliest", "safe", "finalized",
		},
		PoolFilterIDs: {
			"0x1", "0x2", "0x3", "0x0", "0x10", "0x100",
			"0xffffffffffffffff", "0x0000000000000000",
		},
		PoolCosmosAddresses: {
			"cosmos1jxv0u20scum4trha72c7ltfgfqef6nscwf8dg8",
			"cosmos1xyxs3skf3f4jfqeuv89yyaqvjc6lffavxqhc8g",
			"cosmos1e0jnq2sun3dzjh8p2xq95kk0expwmd7shwjpfg",
			"cosmos1ujax3mefa6mn5zeq7xcnetwz9skv9stmuf59sf",
		},
		PoolCIDs: {
			"bafy2bzacecmda75ovposbdateg7eyhwij3uucabtxgziaf3aeyn6tuqje7psm",
			"bafy2bzaceaxm23epjsmh75yvzcecsrbavlmkcxnva66bkdcfpsp4fzwovuv6q",
			"bafy2bzacedikkmeotawrxrrbnrdqlsknlad4xjyubo52cmlmuxfhrgxvktws6",
		},
		PoolDenoms: {
			"uatom", "stake", "ustake",
		},
		PoolProposalIDs: {
			"1", "2", "3", "10", "100",
		},
		PoolHeights: {
			"0", "1", "10", "100", "latest",
		},
		PoolStorePaths: {
			"/store/acc/key", "/store/staking/key", "/custom/gov/proposals",
		},
	})
}

// Load reads pool overrides from a YAML file and merges them over the
// defaults. The file is a flat mapping of pool name to value list; pools not
// present in the file keep their built-in values.
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file %s: %w", path, err)
	}

	s := Default()
	for name, values := range overrides {
		if len(values) == 0 {
			continue
		}
		s.pools[name] = append([]string(nil), values...)
	}
	return s, nil
}

// Values returns all candidates of a pool.
func (s *Static) Values(pool string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.pools[pool]
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

// Pick returns one candidate uniformly at random.
func (s *Static) Pick(pool string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.pools[pool]
	if len(values) == 0 {
		return ""
	}
	return values[s.rng.Intn(len(values))]
}
