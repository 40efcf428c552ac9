/*

Liquidity-pool yield model: impermanent loss, trading-fee and farming yield,
step-function gas cost, harvest-frequency optimization and the Monte Carlo
projection over log-normal price-ratio draws.

The value identity is the constant-product one: (V0/2)*(r+1) is what simply
holding the two pooled assets is worth after price change r; multiplying by
the IL factor 2*sqrt(r)/(1+r) converts hold-value into pooled-value; fee and
farming yield compound on top per harvest; gas is a non-compounded
subtraction at the end.

*/

package simulator

import (
	"fmt"
	"math"

	"github.com/crestfi/yra/internal/types"
)

// HarvestCandidateHours is the discrete grid the harvest optimizer searches.
// Gas cost is a step function of harvest count, so only a handful of
// operational cadences are worth evaluating.
var HarvestCandidateHours = []float64{1, 2, 4, 6, 8, 12, 24, 48, 72, 168}

// Gas unit constants per transaction class. Costs per tx are
// units * gasPriceGwei * 1e-9 * nativePriceUSD.
const (
	lpOpenCloseGasUnits = 450000 // combined open + close, paid once per position
	lpHarvestGasUnits   = 150000 // claim + reinvest, paid per harvest
	gweiToNative        = 1e-9
)

// LPSimulationInput bundles everything an LP projection needs.
type LPSimulationInput struct {
	InitialValueUSD       float64
	HoldingPeriodDays     float64
	HarvestFrequencyHours float64 // 0 selects the optimal cadence from the grid
	Exogenous             types.LPExogenousParams
	LogReturns            types.LogReturnParameters
	NumSimulations        int
}

// ImpermanentLossFactor converts hold-value into pooled-value for a price
// ratio r = P_final/P_initial. Equals 1 at r=1 and is symmetric under
// r <-> 1/r.
func ImpermanentLossFactor(r float64) float64 {
	return 2 * math.Sqrt(r) / (1 + r)
}

// TradingFeeAPY projects the annualized fee yield (percent) the position
// would earn at the pool's current volume, with the position's own capital
// diluting the pool.
func TradingFeeAPY(ex types.LPExogenousParams, initialValueUSD float64) float64 {
	return (ex.Volume24hUSD * ex.FeeTier) / (ex.TVLPoolUSD + initialValueUSD) * 365 * 100
}

// FarmingAPY projects the annualized reward-emission yield (percent). Zero
// when the pool has no staking program.
func FarmingAPY(ex types.LPExogenousParams, initialValueUSD float64) float64 {
	if ex.AnnualEmission == 0 || ex.RewardTokenPriceUSD == 0 {
		return 0
	}
	return (ex.AnnualEmission * ex.PairWeightRatio * ex.RewardTokenPriceUSD) / (ex.TVLStakedUSD + initialValueUSD) * 100
}

// GasCostUSD is the total transaction cost of running the position: the
// fixed open+close cost plus one harvest transaction per harvest interval in
// the holding period.
func GasCostUSD(holdingDays, harvestHours float64, ex types.LPExogenousParams) float64 {
	perUnit := ex.GasPriceGwei * gweiToNative * ex.NativePriceUSD
	openClose := lpOpenCloseGasUnits * perUnit
	numHarvests := math.Ceil(holdingDays * 24 / harvestHours)
	return openClose + numHarvests*lpHarvestGasUnits*perUnit
}

// harvestCostUSD is the cost of a single harvest transaction.
func harvestCostUSD(ex types.LPExogenousParams) float64 {
	return lpHarvestGasUnits * ex.GasPriceGwei * gweiToNative * ex.NativePriceUSD
}

// LPFinalValue evaluates the position's terminal value for one price ratio.
func LPFinalValue(initialValueUSD, priceRatio, totalAPYPct, holdingDays, harvestHours, gasCostUSD float64) float64 {
	harvestFrequencyDays := harvestHours / 24
	ratePerHarvest := (totalAPYPct / 100 / 365) * harvestFrequencyDays
	numPeriods := holdingDays / harvestFrequencyDays
	holdValue := (initialValueUSD / 2) * (priceRatio + 1)
	return holdValue*ImpermanentLossFactor(priceRatio)*math.Pow(1+ratePerHarvest, numPeriods) - gasCostUSD
}

// BreakEvenDays is the minimum holding period for un-compounded daily yield
// to cover one harvest's gas cost. Zero when the position earns nothing —
// no cadence pays for itself in that case.
func BreakEvenDays(initialValueUSD, totalAPYPct float64, ex types.LPExogenousParams) float64 {
	dailyYield := initialValueUSD * totalAPYPct / 100 / 365
	if dailyYield <= 0 {
		return 0
	}
	return harvestCostUSD(ex) / dailyYield
}

func validateLPInput(in LPSimulationInput) error {
	if in.InitialValueUSD <= 0 {
		return fmt.Errorf("%w: initial value must be positive, got %f", ErrInvalidInput, in.InitialValueUSD)
	}
	if in.HoldingPeriodDays <= 0 {
		return fmt.Errorf("%w: holding period must be positive, got %f", ErrInvalidInput, in.HoldingPeriodDays)
	}
	if in.Exogenous.TVLPoolUSD <= 0 {
		return fmt.Errorf("%w: pool TVL must be positive, got %f", ErrInvalidInput, in.Exogenous.TVLPoolUSD)
	}
	if in.NumSimulations < MinSimulations {
		return fmt.Errorf("%w: need at least %d, got %d", ErrTooFewSimulations, MinSimulations, in.NumSimulations)
	}
	if in.LogReturns.SampleSize < 2 {
		return fmt.Errorf("%w: log return parameters from fewer than 2 samples", ErrInvalidInput)
	}
	if in.HarvestFrequencyHours < 0 {
		return fmt.Errorf("%w: harvest frequency cannot be negative", ErrInvalidInput)
	}
	return nil
}

// EvaluateLP computes the deterministic outcome for one explicit price
// ratio, e.g. for auditing a single draw or a what-if query.
func EvaluateLP(in LPSimulationInput, priceRatio, harvestHours float64) (types.SimulationScenario, error) {
	if err := validateLPInput(in); err != nil {
		return types.SimulationScenario{}, err
	}
	if priceRatio <= 0 {
		return types.SimulationScenario{}, fmt.Errorf("%w: price ratio must be positive, got %f", ErrInvalidInput, priceRatio)
	}
	if harvestHours <= 0 {
		return types.SimulationScenario{}, fmt.Errorf("%w: harvest hours must be positive, got %f", ErrInvalidInput, harvestHours)
	}

	tradingAPY := TradingFeeAPY(in.Exogenous, in.InitialValueUSD)
	farmingAPY := FarmingAPY(in.Exogenous, in.InitialValueUSD)
	gas := GasCostUSD(in.HoldingPeriodDays, harvestHours, in.Exogenous)
	final := LPFinalValue(in.InitialValueUSD, priceRatio, tradingAPY+farmingAPY, in.HoldingPeriodDays, harvestHours, gas)

	return types.SimulationScenario{
		Input:         priceRatio,
		FinalValue:    final,
		ReturnPercent: (final - in.InitialValueUSD) / in.InitialValueUSD * 100,
		ComponentBreakdown: map[string]float64{
			"price_ratio":     priceRatio,
			"il_factor":       ImpermanentLossFactor(priceRatio),
			"trading_fee_apy": tradingAPY,
			"farming_apy":     farmingAPY,
			"gas_cost_usd":    gas,
		},
	}, nil
}

// OptimizeHarvestFrequencyLP grid-searches the candidate cadences and returns
// the one maximizing terminal value at the drift-implied median price ratio.
// The search is deterministic; the Monte Carlo spread is applied afterwards
// at the chosen cadence.
func OptimizeHarvestFrequencyLP(in LPSimulationInput) (float64, error) {
	if err := validateLPInput(in); err != nil {
		return 0, err
	}

	medianRatio := math.Exp(in.LogReturns.DailyMu * in.HoldingPeriodDays)
	totalAPY := TradingFeeAPY(in.Exogenous, in.InitialValueUSD) + FarmingAPY(in.Exogenous, in.InitialValueUSD)

	bestHours := HarvestCandidateHours[0]
	bestValue := math.Inf(-1)
	for _, hours := range HarvestCandidateHours {
		gas := GasCostUSD(in.HoldingPeriodDays, hours, in.Exogenous)
		value := LPFinalValue(in.InitialValueUSD, medianRatio, totalAPY, in.HoldingPeriodDays, hours, gas)
		if value > bestValue {
			bestValue = value
			bestHours = hours
		}
	}

	simLogger.Debug().
		Float64("bestHours", bestHours).
		Float64("bestValue", bestValue).
		Msg("LP harvest frequency optimized")

	return bestHours, nil
}

// SimulateLP runs the Monte Carlo projection for an LP position. Price
// ratios are drawn log-normally: r_i = exp(mu*days + sigma*sqrt(days)*Z_i).
func SimulateLP(in LPSimulationInput, sampler *Sampler) (*types.SimulationResult, error) {
	if err := validateLPInput(in); err != nil {
		return nil, err
	}

	harvestHours := in.HarvestFrequencyHours
	if harvestHours == 0 {
		optimized, err := OptimizeHarvestFrequencyLP(in)
		if err != nil {
			return nil, err
		}
		harvestHours = optimized
	}

	tradingAPY := TradingFeeAPY(in.Exogenous, in.InitialValueUSD)
	farmingAPY := FarmingAPY(in.Exogenous, in.InitialValueUSD)
	totalAPY := tradingAPY + farmingAPY
	gas := GasCostUSD(in.HoldingPeriodDays, harvestHours, in.Exogenous)

	mu := in.LogReturns.DailyMu
	sigma := in.LogReturns.DailySigma
	days := in.HoldingPeriodDays
	sqrtDays := math.Sqrt(days)

	scenarios := make([]types.SimulationScenario, in.NumSimulations)
	for i := 0; i < in.NumSimulations; i++ {
		z := sampler.Normal()
		ratio := math.Exp(mu*days + sigma*sqrtDays*z)
		final := LPFinalValue(in.InitialValueUSD, ratio, totalAPY, days, harvestHours, gas)
		scenarios[i] = types.SimulationScenario{
			Input:         ratio,
			FinalValue:    final,
			ReturnPercent: (final - in.InitialValueUSD) / in.InitialValueUSD * 100,
			ComponentBreakdown: map[string]float64{
				"price_ratio":     ratio,
				"il_factor":       ImpermanentLossFactor(ratio),
				"trading_fee_apy": tradingAPY,
				"farming_apy":     farmingAPY,
				"gas_cost_usd":    gas,
			},
		}
	}

	result, err := aggregate(scenarios)
	if err != nil {
		return nil, err
	}

	// LP results annualize by simple extrapolation. The lending model
	// compounds instead; the two conventions are deliberately distinct and
	// contract-tested literally.
	result.AnnualizedAPY = result.MeanReturnPercent / days * 365
	result.HarvestFrequencyHours = harvestHours
	result.BreakEvenDays = BreakEvenDays(in.InitialValueUSD, totalAPY, in.Exogenous)
	result.DistributionParams = map[string]float64{
		"daily_mu":     mu,
		"daily_sigma":  sigma,
		"holding_days": days,
	}

	simLogger.Debug().
		Int("numSimulations", in.NumSimulations).
		Float64("meanFinalValue", result.Mean).
		Float64("annualizedAPY", result.AnnualizedAPY).
		Msg("LP simulation complete")

	return result, nil
}
