package fuzz

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/storm-tools/storm/internal/corpus"
)

// payloadRule pairs a template predicate with a payload builder. Rules are
// evaluated top to bottom, first match wins, so the "Validator but not
// Validators" style precedence stays explicit.
type payloadRule struct {
	match func(path string) bool
	build func(c corpus.Provider) map[string]any
}

func contains(sub string) func(string) bool {
	return func(path string) bool { return strings.Contains(path, sub) }
}

func containsNot(sub, not string) func(string) bool {
	return func(path string) bool {
		return strings.Contains(path, sub) && !strings.Contains(path, not)
	}
}

var payloadRules = []payloadRule{
	{contains("AllBalances"), func(c corpus.Provider) map[string]any {
		return map[string]any{"address": c.Pick(corpus.PoolCosmosAddresses)}
	}},
	{contains("Balance"), func(c corpus.Provider) map[string]any {
		return map[string]any{
			"address": c.Pick(corpus.PoolCosmosAddresses),
			"denom":   c.Pick(corpus.PoolDenoms),
		}
	}},
	{contains("SupplyOf"), func(c corpus.Provider) map[string]any {
		return map[string]any{"denom": c.Pick(corpus.PoolDenoms)}
	}},
	{containsNot("Validator", "Validators"), func(c corpus.Provider) map[string]any {
		return map[string]any{"validator_addr": c.Pick(corpus.PoolCosmosAddresses)}
	}},
	{contains("Delegation"), func(c corpus.Provider) map[string]any {
		return map[string]any{
			"delegator_addr": c.Pick(corpus.PoolCosmosAddresses),
			"validator_addr": c.Pick(corpus.PoolCosmosAddresses),
		}
	}},
	{containsNot("Proposal", "Proposals"), func(c corpus.Provider) map[string]any {
		return map[string]any{"proposal_id": c.Pick(corpus.PoolProposalIDs)}
	}},
	{containsNot("Vote", "Votes"), func(c corpus.Provider) map[string]any {
		return map[string]any{
			"proposal_id": c.Pick(corpus.PoolProposalIDs),
			"voter":       c.Pick(corpus.PoolCosmosAddresses),
		}
	}},
	{containsNot("Account", "Accounts"), func(c corpus.Provider) map[string]any {
		return map[string]any{"address": c.Pick(corpus.PoolCosmosAddresses)}
	}},
}

// buildQueryData synthesizes the base64-encoded JSON payload for one path.
// Unmatched paths get an empty object.
func buildQueryData(path string, c corpus.Provider) string {
	data := map[string]any{}
	for _, rule := range payloadRules {
		if rule.match(path) {
			data = rule.build(c)
			break
		}
	}
	encoded, _ := json.Marshal(data)
	return base64.StdEncoding.EncodeToString(encoded)
}
