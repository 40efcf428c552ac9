package stats

import (
	"math"
	"testing"
	"time"

	"github.com/crestfi/yra/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utilizationSeries(values ...float64) []types.SeriesPoint {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]types.SeriesPoint, len(values))
	for i, v := range values {
		points[i] = types.SeriesPoint{Timestamp: start.AddDate(0, 0, i), Value: v}
	}
	return points
}

func TestEstimateUtilizationKnownValues(t *testing.T) {
	stats, err := EstimateUtilization(utilizationSeries(0.6, 0.7, 0.8))
	require.NoError(t, err)

	assert.InDelta(t, 0.7, stats.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.02/3), stats.Std, 1e-12) // population std
	assert.Equal(t, 0.6, stats.Min)
	assert.Equal(t, 0.8, stats.Max)
	assert.Equal(t, 0.7, stats.Median)
}

func TestEstimateUtilizationEvenCountMedian(t *testing.T) {
	stats, err := EstimateUtilization(utilizationSeries(0.2, 0.4, 0.6, 0.8))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, stats.Median, 1e-12)
}

func TestEstimateUtilizationEmptySeries(t *testing.T) {
	_, err := EstimateUtilization(nil)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestEstimateUtilizationRejectsOutOfRange(t *testing.T) {
	_, err := EstimateUtilization(utilizationSeries(0.5, 1.2))
	assert.Error(t, err)

	_, err = EstimateUtilization(utilizationSeries(-0.1))
	assert.Error(t, err)
}

func TestEstimateUtilizationRejectsNonFinite(t *testing.T) {
	_, err := EstimateUtilization(utilizationSeries(0.5, math.NaN()))
	assert.Error(t, err)

	_, err = EstimateUtilization(utilizationSeries(math.Inf(1)))
	assert.Error(t, err)
}
