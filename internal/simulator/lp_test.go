package simulator

import (
	"math"
	"testing"

	"github.com/crestfi/yra/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lpInput() LPSimulationInput {
	return LPSimulationInput{
		InitialValueUSD:   1000,
		HoldingPeriodDays: 30,
		Exogenous: types.LPExogenousParams{
			Volume24hUSD:   50_000,
			TVLPoolUSD:     1_000_000,
			FeeTier:        0.0017,
			GasPriceGwei:   20,
			NativePriceUSD: 2500,
		},
		LogReturns: types.LogReturnParameters{
			DailyMu:    0.0005,
			DailySigma: 0.02,
			SampleSize: 30,
		},
		NumSimulations: 500,
	}
}

func TestImpermanentLossFactorIdentityAtOne(t *testing.T) {
	assert.Equal(t, 1.0, ImpermanentLossFactor(1.0))
}

func TestImpermanentLossFactorSymmetry(t *testing.T) {
	for _, r := range []float64{0.1, 0.5, 0.9, 1.5, 2, 4, 10} {
		assert.InDelta(t, ImpermanentLossFactor(r), ImpermanentLossFactor(1/r), 1e-12, "r=%f", r)
	}
}

func TestImpermanentLossFactorAlwaysBelowOne(t *testing.T) {
	for _, r := range []float64{0.2, 0.8, 1.2, 3} {
		assert.Less(t, ImpermanentLossFactor(r), 1.0, "r=%f", r)
		assert.Greater(t, ImpermanentLossFactor(r), 0.0, "r=%f", r)
	}
}

func TestTradingFeeAPYKnownPool(t *testing.T) {
	// 50k daily volume at a 0.17% fee tier in a 1M pool, diluted by the
	// position's own 1k: ((50000*0.0017)/1001000)*365*100.
	in := lpInput()
	apy := TradingFeeAPY(in.Exogenous, in.InitialValueUSD)
	assert.InDelta(t, 3.10, apy, 0.01)
}

func TestFarmingAPYZeroWithoutEmissions(t *testing.T) {
	in := lpInput()
	assert.Zero(t, FarmingAPY(in.Exogenous, in.InitialValueUSD))

	in.Exogenous.AnnualEmission = 1_000_000
	in.Exogenous.RewardTokenPriceUSD = 2
	in.Exogenous.PairWeightRatio = 0.1
	in.Exogenous.TVLStakedUSD = 5_000_000
	assert.Greater(t, FarmingAPY(in.Exogenous, in.InitialValueUSD), 0.0)
}

func TestLPFinalValueIdentityAtUnitRatio(t *testing.T) {
	// r=1, zero fees, zero farming, zero gas: the position is worth exactly
	// what went in.
	assert.Equal(t, 1000.0, LPFinalValue(1000, 1.0, 0, 30, 24, 0))
}

func TestGasCostNonDecreasingWithHarvestRate(t *testing.T) {
	in := lpInput()

	previous := 0.0
	for i := len(HarvestCandidateHours) - 1; i >= 0; i-- {
		cost := GasCostUSD(in.HoldingPeriodDays, HarvestCandidateHours[i], in.Exogenous)
		assert.GreaterOrEqual(t, cost, previous, "harvestHours=%f", HarvestCandidateHours[i])
		previous = cost
	}
}

func TestBreakEvenDaysZeroWhenNoYield(t *testing.T) {
	in := lpInput()
	assert.Zero(t, BreakEvenDays(in.InitialValueUSD, 0, in.Exogenous))
	assert.Zero(t, BreakEvenDays(in.InitialValueUSD, -5, in.Exogenous))
	assert.Greater(t, BreakEvenDays(in.InitialValueUSD, 10, in.Exogenous), 0.0)
}

func TestEvaluateLPScenarioBreakdown(t *testing.T) {
	in := lpInput()
	in.Exogenous.GasPriceGwei = 0

	scenario, err := EvaluateLP(in, 1.0, 24)
	require.NoError(t, err)

	assert.Equal(t, 1.0, scenario.ComponentBreakdown["il_factor"])
	assert.InDelta(t, 3.10, scenario.ComponentBreakdown["trading_fee_apy"], 0.01)
	assert.Zero(t, scenario.ComponentBreakdown["farming_apy"])
	// Fees compound on an unmoved position, so it ends slightly ahead.
	assert.Greater(t, scenario.FinalValue, in.InitialValueUSD)
}

func TestEvaluateLPRejectsNonPositiveRatio(t *testing.T) {
	in := lpInput()

	_, err := EvaluateLP(in, 0, 24)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = EvaluateLP(in, -1.5, 24)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOptimizeHarvestFrequencyLPReturnsGridMember(t *testing.T) {
	in := lpInput()
	hours, err := OptimizeHarvestFrequencyLP(in)
	require.NoError(t, err)
	assert.Contains(t, HarvestCandidateHours, hours)
}

func TestOptimizeHarvestFrequencyLPPrefersFrequentWhenGasFree(t *testing.T) {
	in := lpInput()
	in.Exogenous.GasPriceGwei = 0

	hours, err := OptimizeHarvestFrequencyLP(in)
	require.NoError(t, err)
	assert.Equal(t, 1.0, hours)
}

func TestOptimizeHarvestFrequencyLPAvoidsFrequentWhenGasHeavy(t *testing.T) {
	in := lpInput()
	in.Exogenous.GasPriceGwei = 500

	hours, err := OptimizeHarvestFrequencyLP(in)
	require.NoError(t, err)
	assert.Equal(t, 168.0, hours)
}

func TestSimulateLPFixedSeedDeterminism(t *testing.T) {
	in := lpInput()

	first, err := SimulateLP(in, NewSampler(99))
	require.NoError(t, err)
	second, err := SimulateLP(in, NewSampler(99))
	require.NoError(t, err)

	assert.Equal(t, first.Mean, second.Mean)
	assert.Equal(t, first.Std, second.Std)
	assert.Equal(t, first.Percentile5, second.Percentile5)
	assert.Equal(t, first.Percentile95, second.Percentile95)
	assert.Equal(t, first.ProbabilityOfLoss, second.ProbabilityOfLoss)
	assert.Equal(t, first.AnnualizedAPY, second.AnnualizedAPY)
}

func TestSimulateLPAnnualizesBySimpleExtrapolation(t *testing.T) {
	in := lpInput()

	result, err := SimulateLP(in, NewSampler(1))
	require.NoError(t, err)

	expected := result.MeanReturnPercent / in.HoldingPeriodDays * 365
	assert.InDelta(t, expected, result.AnnualizedAPY, 1e-9)
}

func TestSimulateLPValidation(t *testing.T) {
	in := lpInput()
	in.InitialValueUSD = 0
	_, err := SimulateLP(in, NewSampler(1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = lpInput()
	in.Exogenous.TVLPoolUSD = 0
	_, err = SimulateLP(in, NewSampler(1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = lpInput()
	in.NumSimulations = 50
	_, err = SimulateLP(in, NewSampler(1))
	assert.ErrorIs(t, err, ErrTooFewSimulations)

	in = lpInput()
	in.LogReturns.SampleSize = 1
	_, err = SimulateLP(in, NewSampler(1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = lpInput()
	in.HarvestFrequencyHours = -4
	_, err = SimulateLP(in, NewSampler(1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSimulateLPPopulatesMetadata(t *testing.T) {
	in := lpInput()
	in.HarvestFrequencyHours = 24

	result, err := SimulateLP(in, NewSampler(5))
	require.NoError(t, err)

	assert.Equal(t, 24.0, result.HarvestFrequencyHours)
	assert.Equal(t, in.NumSimulations, result.NumSimulations)
	assert.Equal(t, in.LogReturns.DailyMu, result.DistributionParams["daily_mu"])
	assert.Equal(t, in.LogReturns.DailySigma, result.DistributionParams["daily_sigma"])
	assert.Greater(t, result.BreakEvenDays, 0.0)
	assert.False(t, math.IsNaN(result.Mean))
}
