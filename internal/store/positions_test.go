package store

import (
	"testing"
	"time"

	"github.com/crestfi/yra/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePosition() types.Position {
	return types.Position{
		PoolID:    "aave-v3:usdc",
		Protocol:  "aave-v3",
		Asset:     "USDC",
		APY:       5.5,
		EntryDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		AmountUSD: 10_000,
	}
}

func TestGetMissingPosition(t *testing.T) {
	s := NewMemoryPositionStore()

	_, err := s.Get("acct-1")
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestReplaceAndGet(t *testing.T) {
	s := NewMemoryPositionStore()
	position := samplePosition()

	require.NoError(t, s.Replace("acct-1", position))

	got, err := s.Get("acct-1")
	require.NoError(t, err)
	assert.Equal(t, position, got)
}

func TestReplaceOverwritesPrevious(t *testing.T) {
	s := NewMemoryPositionStore()
	require.NoError(t, s.Replace("acct-1", samplePosition()))

	updated := samplePosition()
	updated.PoolID = "compound-v2:dai"
	updated.Asset = "DAI"
	require.NoError(t, s.Replace("acct-1", updated))

	got, err := s.Get("acct-1")
	require.NoError(t, err)
	assert.Equal(t, types.PoolID("compound-v2:dai"), got.PoolID)
}

func TestReplaceDefaultsZeroEntryDate(t *testing.T) {
	s := NewMemoryPositionStore()
	position := samplePosition()
	position.EntryDate = time.Time{}

	require.NoError(t, s.Replace("acct-1", position))

	got, err := s.Get("acct-1")
	require.NoError(t, err)
	assert.False(t, got.EntryDate.IsZero())
}

func TestReplaceRejectsEmptyAccount(t *testing.T) {
	s := NewMemoryPositionStore()
	assert.Error(t, s.Replace("", samplePosition()))
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewMemoryPositionStore()
	require.NoError(t, s.Replace("acct-1", samplePosition()))

	got, err := s.Get("acct-1")
	require.NoError(t, err)
	got.AmountUSD = 0 // caller-side mutation must not leak into the store

	again, err := s.Get("acct-1")
	require.NoError(t, err)
	assert.Equal(t, 10_000.0, again.AmountUSD)
}

func TestClear(t *testing.T) {
	s := NewMemoryPositionStore()
	require.NoError(t, s.Replace("acct-1", samplePosition()))

	require.NoError(t, s.Clear("acct-1"))
	_, err := s.Get("acct-1")
	assert.ErrorIs(t, err, ErrNoPosition)

	assert.ErrorIs(t, s.Clear("acct-1"), ErrNoPosition)
}

func TestAccountsIsolation(t *testing.T) {
	s := NewMemoryPositionStore()
	require.NoError(t, s.Replace("acct-1", samplePosition()))

	other := samplePosition()
	other.PoolID = "compound-v2:dai"
	require.NoError(t, s.Replace("acct-2", other))

	accounts := s.Accounts()
	assert.ElementsMatch(t, []types.AccountID{"acct-1", "acct-2"}, accounts)

	require.NoError(t, s.Clear("acct-2"))
	got, err := s.Get("acct-1")
	require.NoError(t, err)
	assert.Equal(t, types.PoolID("aave-v3:usdc"), got.PoolID)
}
