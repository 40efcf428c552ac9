/*

Custom types for candidate yield pools. A PoolDescriptor carries everything the
simulation layer needs to model a position in the pool; it is supplied by the
external metadata provider and never mutated by the core.

*/

package types

import "time"

type PoolID string

// PoolType distinguishes the two position families the engine can model.
type PoolType string

const (
	PoolTypeLending PoolType = "lending"
	PoolTypeLP      PoolType = "lp"
)

type PoolDescriptor struct {
	PoolID   PoolID   `json:"pool_id"`  // e.g., "aave-v3:usdc"
	Protocol string   `json:"protocol"` // e.g., "aave-v3"
	Assets   []string `json:"assets"`   // e.g., ["USDC"] or ["WETH", "USDC"]
	Type     PoolType `json:"type"`
	Version  string   `json:"version,omitempty"`

	// Exogenous holds the LP-only market snapshot. Nil for lending pools.
	Exogenous *LPExogenousParams `json:"exogenous_params,omitempty"`
}

// LPExogenousParams is the point-in-time market snapshot an LP yield
// projection depends on but does not model: volumes, liquidity depth,
// emissions pricing and gas conditions.
type LPExogenousParams struct {
	Volume24hUSD        float64 `json:"v_24h"`              // 24h trading volume through the pool
	TVLPoolUSD          float64 `json:"tvl_lp"`             // liquidity currently in the pool
	FeeTier             float64 `json:"fee_tier"`           // venue-fixed LP fee share, e.g. 0.0017
	AnnualEmission      float64 `json:"annual_emission"`    // reward tokens emitted per year, 0 if no program
	PairWeightRatio     float64 `json:"pair_weight_ratio"`  // this pair's share of emissions
	RewardTokenPriceUSD float64 `json:"reward_token_price"` // USD price of the emitted token
	TVLStakedUSD        float64 `json:"tvl_staked"`         // liquidity staked in the farm, 0 if no program
	GasPriceGwei        float64 `json:"gas_price"`
	NativePriceUSD      float64 `json:"native_price"`
}

// Asset returns the primary asset symbol for single-asset pools.
func (p PoolDescriptor) Asset() string {
	if len(p.Assets) == 0 {
		return ""
	}
	return p.Assets[0]
}

// SeriesPoint is one observation in a provider-supplied historical series
// (utilization, price, price ratio). Series are ordered oldest first.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}
