package utils

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat64ToBaseUnits(t *testing.T) {
	amount, err := Float64ToBaseUnits(1234.5, 6)
	require.NoError(t, err)
	assert.Equal(t, "1234500000", amount.String())

	amount, err = Float64ToBaseUnits(0.000001, 6)
	require.NoError(t, err)
	assert.Equal(t, "1", amount.String())

	amount, err = Float64ToBaseUnits(0, 6)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	amount, err = Float64ToBaseUnits(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", amount.String())
}

func TestFloat64ToBaseUnitsErrors(t *testing.T) {
	_, err := Float64ToBaseUnits(1, -1)
	assert.ErrorIs(t, err, ErrInvalidPrecision)

	_, err = Float64ToBaseUnits(1, 19)
	assert.ErrorIs(t, err, ErrInvalidPrecision)

	_, err = Float64ToBaseUnits(-5, 6)
	assert.ErrorIs(t, err, ErrAmountNegative)

	_, err = Float64ToBaseUnits(math.NaN(), 6)
	assert.ErrorIs(t, err, ErrNotFinite)

	_, err = Float64ToBaseUnits(math.Inf(1), 6)
	assert.ErrorIs(t, err, ErrNotFinite)
}

func TestBaseUnitsToFloat64(t *testing.T) {
	value, err := BaseUnitsToFloat64(sdkmath.NewInt(1234500000), 6)
	require.NoError(t, err)
	assert.InDelta(t, 1234.5, value, 1e-9)

	value, err = BaseUnitsToFloat64(sdkmath.ZeroInt(), 18)
	require.NoError(t, err)
	assert.Zero(t, value)
}

func TestBaseUnitsToFloat64Errors(t *testing.T) {
	_, err := BaseUnitsToFloat64(sdkmath.NewInt(1), 19)
	assert.ErrorIs(t, err, ErrInvalidPrecision)

	_, err = BaseUnitsToFloat64(sdkmath.Int{}, 6)
	assert.ErrorIs(t, err, ErrAmountNil)

	_, err = BaseUnitsToFloat64(sdkmath.NewInt(-1), 6)
	assert.ErrorIs(t, err, ErrAmountNegative)
}

func TestBaseUnitRoundTrip(t *testing.T) {
	for _, amount := range []float64{0.01, 1, 99.99, 10_000, 123456.789} {
		base, err := Float64ToBaseUnits(amount, 6)
		require.NoError(t, err)
		back, err := BaseUnitsToFloat64(base, 6)
		require.NoError(t, err)
		assert.InDelta(t, amount, back, 1e-6, "amount=%f", amount)
	}
}
