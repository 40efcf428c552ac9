package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/crestfi/yra/internal/types"
)

const daysPerYear = 365.0

// EstimateLogReturns derives drift/volatility parameters from a price or
// price-ratio series sampled daily. It assumes the series is sorted
// chronologically; if not, it sorts it first. Uses logarithmic returns and
// population standard deviation, annualized under the daily-sampling
// assumption (mu*365, sigma*sqrt(365)).
func EstimateLogReturns(series []types.SeriesPoint) (types.LogReturnParameters, error) {
	n := len(series)
	if n < 2 {
		return types.LogReturnParameters{}, fmt.Errorf("%w: need at least 2 price points, got %d", ErrInsufficientData, n)
	}

	sorted := make([]types.SeriesPoint, n)
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	logReturns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		current := sorted[i].Value
		previous := sorted[i-1].Value

		// Non-positive prices would break math.Log
		if previous <= 0 || current <= 0 {
			return types.LogReturnParameters{}, fmt.Errorf("non-positive price at index %d or %d", i-1, i)
		}

		logReturns = append(logReturns, math.Log(current/previous))
	}

	numReturns := len(logReturns)

	var sum float64
	for _, r := range logReturns {
		sum += r
	}
	mu := sum / float64(numReturns)

	var sumSqDiff float64
	for _, r := range logReturns {
		sumSqDiff += (r - mu) * (r - mu)
	}
	// Population standard deviation (N, not N-1)
	sigma := math.Sqrt(sumSqDiff / float64(numReturns))

	params := types.LogReturnParameters{
		DailyMu:         mu,
		DailySigma:      sigma,
		AnnualizedMu:    mu * daysPerYear,
		AnnualizedSigma: sigma * math.Sqrt(daysPerYear),
		SampleSize:      n,
	}

	statsLogger.Debug().
		Int("sampleSize", n).
		Float64("dailyMu", mu).
		Float64("dailySigma", sigma).
		Msg("Log return parameters estimated")

	return params, nil
}
