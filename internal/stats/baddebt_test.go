package stats

import (
	"testing"

	"github.com/crestfi/yra/internal/ratemodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateBadDebtCategoryProfiles(t *testing.T) {
	stable, err := EstimateBadDebt(ratemodel.CategoryStablecoin, 365, 1_000_000)
	require.NoError(t, err)
	volatile, err := EstimateBadDebt(ratemodel.CategoryVolatile, 365, 1_000_000)
	require.NoError(t, err)

	// Stables fail more often but far less severely.
	assert.Greater(t, stable.EventsPerYear, volatile.EventsPerYear)
	assert.Less(t, stable.MeanLossPerEvent, volatile.MeanLossPerEvent)
}

func TestEstimateBadDebtSeverityIndependentOfWindow(t *testing.T) {
	short, err := EstimateBadDebt(ratemodel.CategoryMajor, 30, 1_000_000)
	require.NoError(t, err)
	long, err := EstimateBadDebt(ratemodel.CategoryMajor, 730, 1_000_000)
	require.NoError(t, err)

	// A longer window may contain more events, but one event's severity
	// never depends on how long you watched.
	assert.Equal(t, short.MeanLossPerEvent, long.MeanLossPerEvent)
	assert.Equal(t, short.AnnualizedRate, long.AnnualizedRate)
	assert.Equal(t, short.EventsPerYear, long.EventsPerYear)
	assert.GreaterOrEqual(t, long.EventCount, short.EventCount)
}

func TestEstimateBadDebtEventCountScalesWithWindow(t *testing.T) {
	stats, err := EstimateBadDebt(ratemodel.CategoryStablecoin, 365, 0)
	require.NoError(t, err)

	// 2 events/year over a 1-year window.
	assert.Equal(t, 2, stats.EventCount)
	assert.Len(t, stats.Events, 2)
	for _, event := range stats.Events {
		assert.Greater(t, event.LossFraction, 0.0)
		assert.LessOrEqual(t, event.LossFraction, 1.0)
		assert.NotEmpty(t, event.Cause)
	}
}

func TestEstimateBadDebtUnknownCategoryFallsBackToVolatile(t *testing.T) {
	unknown, err := EstimateBadDebt(ratemodel.AssetCategory("exotic"), 365, 0)
	require.NoError(t, err)
	volatile, err := EstimateBadDebt(ratemodel.CategoryVolatile, 365, 0)
	require.NoError(t, err)

	assert.Equal(t, volatile.EventsPerYear, unknown.EventsPerYear)
	assert.Equal(t, volatile.MeanLossPerEvent, unknown.MeanLossPerEvent)
}

func TestEstimateBadDebtValidation(t *testing.T) {
	_, err := EstimateBadDebt(ratemodel.CategoryStablecoin, 0, 0)
	assert.Error(t, err)

	_, err = EstimateBadDebt(ratemodel.CategoryStablecoin, 30, -1)
	assert.Error(t, err)
}
