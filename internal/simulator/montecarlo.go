/*

Monte Carlo plumbing shared by the LP and lending yield models: a seedable
random sampler (Box–Muller normal draws) and the reduction of a scenario set
into summary statistics. Identical inputs plus an identical seed produce an
identical SimulationResult.

*/

package simulator

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/crestfi/yra/internal/logger"
	"github.com/crestfi/yra/internal/types"
)

// MinSimulations is the smallest sample size accepted for any Monte Carlo
// run. Below this the tail percentiles are meaningless.
const MinSimulations = 100

var (
	ErrInvalidInput        = errors.New("invalid simulation input")
	ErrTooFewSimulations   = errors.New("numSimulations below minimum")
	ErrNonFiniteArithmetic = errors.New("simulation arithmetic produced a non-finite value")
)

var simLogger = logger.GetForComponent("simulator")

// Sampler wraps a seedable RNG with the distributions the yield models draw
// from. All randomness in a simulation flows through one Sampler so a fixed
// seed reproduces the full run.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler from a seed.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Normal draws a standard normal variate via the Box–Muller transform.
func (s *Sampler) Normal() float64 {
	u1 := s.rng.Float64()
	for u1 == 0 {
		u1 = s.rng.Float64() // log(0) guard
	}
	u2 := s.rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Uniform draws from [lo, hi).
func (s *Sampler) Uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Bernoulli draws true with probability p.
func (s *Sampler) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.rng.Float64() < p
}

// percentile returns the linearly interpolated p-quantile of an ascending
// sorted slice.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// aggregate reduces a scenario set to summary statistics. Annualization is
// model-specific and left to the callers.
func aggregate(scenarios []types.SimulationScenario) (*types.SimulationResult, error) {
	n := len(scenarios)
	if n < MinSimulations {
		return nil, ErrTooFewSimulations
	}

	finals := make([]float64, n)
	returns := make([]float64, n)
	losses := 0
	worstReturn := scenarios[0].ReturnPercent
	for i, sc := range scenarios {
		if math.IsNaN(sc.FinalValue) || math.IsInf(sc.FinalValue, 0) {
			return nil, ErrNonFiniteArithmetic
		}
		finals[i] = sc.FinalValue
		returns[i] = sc.ReturnPercent
		if sc.ReturnPercent < 0 {
			losses++
		}
		if sc.ReturnPercent < worstReturn {
			worstReturn = sc.ReturnPercent
		}
	}

	var sum float64
	for _, v := range finals {
		sum += v
	}
	mean := sum / float64(n)

	var sumSqDiff float64
	for _, v := range finals {
		sumSqDiff += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sumSqDiff / float64(n))

	var returnSum float64
	for _, r := range returns {
		returnSum += r
	}
	meanReturn := returnSum / float64(n)
	var returnSqDiff float64
	for _, r := range returns {
		returnSqDiff += (r - meanReturn) * (r - meanReturn)
	}
	stdReturn := math.Sqrt(returnSqDiff / float64(n))

	// Sharpe is defined as 0 when the return distribution is degenerate.
	sharpe := 0.0
	if stdReturn > 0 {
		sharpe = meanReturn / stdReturn
	}

	sortedFinals := make([]float64, n)
	copy(sortedFinals, finals)
	sort.Float64s(sortedFinals)

	result := &types.SimulationResult{
		Mean:              mean,
		Median:            percentile(sortedFinals, 0.50),
		Std:               std,
		Percentile5:       percentile(sortedFinals, 0.05),
		Percentile25:      percentile(sortedFinals, 0.25),
		Percentile75:      percentile(sortedFinals, 0.75),
		Percentile95:      percentile(sortedFinals, 0.95),
		ProbabilityOfLoss: float64(losses) / float64(n),
		ValueAtRisk5:      percentile(sortedFinals, 0.05),
		SharpeRatio:       sharpe,
		MaxDrawdown:       worstReturn,
		MeanReturnPercent: meanReturn,
		NumSimulations:    n,
		Scenarios:         scenarios,
	}
	return result, nil
}
