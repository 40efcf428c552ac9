/*

Reduces raw historical series into the distributional parameters the yield
models consume. No function here ever fabricates data: an empty or too-short
series is a typed error for the caller to handle.

*/

package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/crestfi/yra/internal/logger"
	"github.com/crestfi/yra/internal/types"
)

// ErrDataUnavailable indicates the provider supplied no usable series.
var ErrDataUnavailable = errors.New("historical data unavailable")

// ErrInsufficientData indicates that not enough data points were provided
// (need at least 2 points for 1 return).
var ErrInsufficientData = errors.New("insufficient data points")

var statsLogger = logger.GetForComponent("stats_estimator")

// EstimateUtilization reduces a utilization series to summary statistics over
// the supplied window. Values outside [0,1] fail validation rather than being
// clamped.
func EstimateUtilization(series []types.SeriesPoint) (types.UtilizationStatistics, error) {
	n := len(series)
	if n == 0 {
		statsLogger.Error().Msg("No utilization series supplied")
		return types.UtilizationStatistics{}, fmt.Errorf("%w: empty utilization series", ErrDataUnavailable)
	}

	values := make([]float64, 0, n)
	for i, point := range series {
		v := point.Value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.UtilizationStatistics{}, fmt.Errorf("utilization point %d is not finite: %f", i, v)
		}
		if v < 0 || v > 1 {
			return types.UtilizationStatistics{}, fmt.Errorf("utilization point %d outside [0,1]: %f", i, v)
		}
		values = append(values, v)
	}

	var sum float64
	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	mean := sum / float64(n)

	var sumSqDiff float64
	for _, v := range values {
		sumSqDiff += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sumSqDiff / float64(n))

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	stats := types.UtilizationStatistics{
		Mean:   mean,
		Std:    std,
		Min:    minVal,
		Max:    maxVal,
		Median: median,
	}

	statsLogger.Debug().
		Int("points", n).
		Float64("mean", mean).
		Float64("std", std).
		Msg("Utilization statistics estimated")

	return stats, nil
}
