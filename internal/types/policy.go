/*

Tunable policy parameters for the reallocation decision engine. Different
parameter sets can exist for different risk profiles; versions are persisted
through the state package.

*/

package types

// DecisionPolicy holds the gates and thresholds the decision engine applies
// before recommending a reallocation.
type DecisionPolicy struct {
	// MinAPYImprovementPct is the minimum candidate-minus-current APY gap
	// (percentage points) required before a move is considered.
	MinAPYImprovementPct float64 `json:"min_apy_improvement_pct"`

	// MinHoldingPeriodDays is the minimum position age before any
	// reallocation is allowed, regardless of the improvement on offer.
	MinHoldingPeriodDays float64 `json:"min_holding_period_days"`

	// GainEvaluationDays is the horizon over which the projected yield gain
	// must cover the reallocation's gas cost.
	GainEvaluationDays float64 `json:"gain_evaluation_days"`

	// MaxBreakEvenDays caps how long a move may take to pay for itself.
	MaxBreakEvenDays float64 `json:"max_break_even_days"`

	// MaxGasPriceGwei blocks reallocation when the network is congested.
	MaxGasPriceGwei float64 `json:"max_gas_price_gwei"`

	// NumSimulations is the Monte Carlo sample count per pool analysis.
	NumSimulations int `json:"num_simulations"`

	// HoldingPeriodDays is the projection horizon fed into the yield models.
	HoldingPeriodDays float64 `json:"holding_period_days"`

	// Risk profile constraints.
	AllowedProtocols []string `json:"allowed_protocols,omitempty"`
	AllowedAssets    []string `json:"allowed_assets,omitempty"`
	MaxSlippagePct   float64  `json:"max_slippage_pct"`
}

// AllowsProtocol reports whether the profile permits the protocol. An empty
// allowlist permits everything.
func (p DecisionPolicy) AllowsProtocol(protocol string) bool {
	if len(p.AllowedProtocols) == 0 {
		return true
	}
	for _, allowed := range p.AllowedProtocols {
		if allowed == protocol {
			return true
		}
	}
	return false
}

// AllowsAsset reports whether the profile permits the asset. An empty
// allowlist permits everything.
func (p DecisionPolicy) AllowsAsset(asset string) bool {
	if len(p.AllowedAssets) == 0 {
		return true
	}
	for _, allowed := range p.AllowedAssets {
		if allowed == asset {
			return true
		}
	}
	return false
}
