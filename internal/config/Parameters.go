/*

This file contains the default decision policy for the agent.

These parameters are calibrated for an automated agent moving delegated
capital between audited lending markets and LP farms. Each value balances
yield capture against transaction costs and protocol hazards.

*/

package config

import (
	"github.com/crestfi/yra/internal/types"
)

// DefaultDecisionPolicy provides a baseline policy for the reallocation
// decision engine. These values are used if no active policy is found in the
// database during initialization.
var DefaultDecisionPolicy = types.DecisionPolicy{
	MinAPYImprovementPct: 1.0, // Require at least a 1 point APY improvement.
	// Rationale: simulated APYs carry estimation error well above half a
	// point. Moving for less than 1% churns gas on noise.

	MinHoldingPeriodDays: 3.0, // Hold any position for at least 3 days.
	// Rationale: prevents thrash when two pools' point estimates oscillate
	// around each other. Entry gas was already paid; let it amortize.

	GainEvaluationDays: 7.0, // Projected gain horizon for the profitability gate.
	// Rationale: one week is long enough for a realistic APY gap to cover
	// gas, short enough that the projection is still trustworthy.

	MaxBreakEvenDays: 14.0, // A move must pay for itself within two weeks.

	MaxGasPriceGwei: 80.0, // Do not reallocate into a congested network.
	// Rationale: gas spikes are transient; the same move is usually
	// available hours later at a fraction of the cost.

	NumSimulations: 1000, // Monte Carlo sample count per pool analysis.
	// Rationale: 1000 draws keeps the p5/p95 estimates stable without
	// making a full multi-pool scan CPU-bound for minutes.

	HoldingPeriodDays: 30.0, // Projection horizon fed into the yield models.

	AllowedProtocols: nil, // No protocol restriction by default.
	AllowedAssets:    nil, // No asset restriction by default.

	MaxSlippagePct: 1.0, // Cap swap slippage on reallocation at 1%.
}
