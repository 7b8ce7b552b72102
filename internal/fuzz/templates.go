package fuzz

// DefaultTemplates returns the built-in query path templates. Simple
// application paths come first, followed by Cosmos SDK module queries and
// FVM paths with parameterized segments.
func DefaultTemplates() []string {
	return []string{
		"/",
		"/app/info",
		"/app/version",
		"/info",
		"/version",
		"/store",
		"/key",
		"/custom",
		"/p2p/filter/addr",
		"/p2p/filter/id",
		"/validators",

		"/store/bank/key",
		"/cosmos.bank.v1beta1.Query/AllBalances",
		"/cosmos.bank.v1beta1.Query/Balance",
		"/cosmos.bank.v1beta1.Query/TotalSupply",
		"/cosmos.bank.v1beta1.Query/SupplyOf",
		"/cosmos.bank.v1beta1.Query/Params",
		"/cosmos.bank.v1beta1.Query/DenomMetadata",
		"/cosmos.bank.v1beta1.Query/DenomsMetadata",

		"/store/staking/key",
		"/cosmos.staking.v1beta1.Query/Validators",
		"/cosmos.staking.v1beta1.Query/Validator",
		"/cosmos.staking.v1beta1.Query/ValidatorDelegations",
		"/cosmos.staking.v1beta1.Query/ValidatorUnbondingDelegations",
		"/cosmos.staking.v1beta1.Query/Delegation",
		"/cosmos.staking.v1beta1.Query/UnbondingDelegation",
		"/cosmos.staking.v1beta1.Query/DelegatorDelegations",
		"/cosmos.staking.v1beta1.Query/DelegatorUnbondingDelegations",
		"/cosmos.staking.v1beta1.Query/Redelegations",
		"/cosmos.staking.v1beta1.Query/DelegatorValidators",
		"/cosmos.staking.v1beta1.Query/DelegatorValidator",
		"/cosmos.staking.v1beta1.Query/HistoricalInfo",
		"/cosmos.staking.v1beta1.Query/Pool",
		"/cosmos.staking.v1beta1.Query/Params",

		"/cosmos.gov.v1beta1.Query/Proposal",
		"/cosmos.gov.v1beta1.Query/Proposals",
		"/cosmos.gov.v1beta1.Query/Vote",
		"/cosmos.gov.v1beta1.Query/Votes",
		"/cosmos.gov.v1beta1.Query/Params",
		"/cosmos.gov.v1beta1.Query/Deposit",
		"/cosmos.gov.v1beta1.Query/Deposits",
		"/cosmos.gov.v1beta1.Query/TallyResult",

		"/cosmos.auth.v1beta1.Query/Account",
		"/cosmos.auth.v1beta1.Query/Accounts",
		"/cosmos.auth.v1beta1.Query/Params",

		"/cosmos.distribution.v1beta1.Query/Params",
		"/cosmos.distribution.v1beta1.Query/ValidatorOutstandingRewards",
		"/cosmos.distribution.v1beta1.Query/ValidatorCommission",
		"/cosmos.distribution.v1beta1.Query/ValidatorSlashes",
		"/cosmos.distribution.v1beta1.Query/DelegationRewards",
		"/cosmos.distribution.v1beta1.Query/DelegationTotalRewards",
		"/cosmos.distribution.v1beta1.Query/DelegatorValidators",
		"/cosmos.distribution.v1beta1.Query/DelegatorWithdrawAddress",
		"/cosmos.distribution.v1beta1.Query/CommunityPool",

		"/cosmos.slashing.v1beta1.Query/Params",
		"/cosmos.slashing.v1beta1.Query/SigningInfo",
		"/cosmos.slashing.v1beta1.Query/SigningInfos",

		"/fvm/ipld/{cid}",
		"/fvm/actor_state/{address}",
		"/fvm/actor_code/{address}",
		"/fvm/actor_balance/{address}",
		"/fvm/actor_nonce/{address}",
	}
}
