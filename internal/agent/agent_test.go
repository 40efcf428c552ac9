package agent

import (
	"context"
	"testing"

	"github.com/crestfi/yra/internal/datafetcher"
	"github.com/crestfi/yra/internal/decision"
	"github.com/crestfi/yra/internal/executor"
	"github.com/crestfi/yra/internal/store"
	"github.com/crestfi/yra/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() types.DecisionPolicy {
	return types.DecisionPolicy{
		MinAPYImprovementPct: 1.0,
		MinHoldingPeriodDays: 3,
		GainEvaluationDays:   7,
		MaxBreakEvenDays:     14,
		MaxGasPriceGwei:      80,
		NumSimulations:       200,
		HoldingPeriodDays:    30,
	}
}

func testAgent(t *testing.T, seed int64) (*Agent, store.PositionStore) {
	t.Helper()

	positions := store.NewMemoryPositionStore()
	policy := testPolicy()
	engine, err := decision.NewEngine(positions, executor.NoopExecutor{}, policy)
	require.NoError(t, err)

	source := datafetcher.NewSyntheticSource(seed)
	agent, err := NewAgent(Config{
		AccountID:    "acct-test",
		PoolSource:   source,
		SeriesSource: source,
		Engine:       engine,
		Positions:    positions,
		Policy:       policy,
		AvailableUSD: 10_000,
		Seed:         seed,
	})
	require.NoError(t, err)
	return agent, positions
}

func TestNewAgentValidatesConfig(t *testing.T) {
	_, err := NewAgent(Config{})
	assert.Error(t, err)

	positions := store.NewMemoryPositionStore()
	engine, err := decision.NewEngine(positions, executor.NoopExecutor{}, testPolicy())
	require.NoError(t, err)

	source := datafetcher.NewSyntheticSource(1)
	cfg := Config{
		AccountID:    "acct-test",
		PoolSource:   source,
		SeriesSource: source,
		Engine:       engine,
		Positions:    positions,
		Policy:       testPolicy(),
	}

	bad := cfg
	bad.Policy.NumSimulations = 10
	_, err = NewAgent(bad)
	assert.Error(t, err)

	bad = cfg
	bad.Policy.HoldingPeriodDays = 0
	_, err = NewAgent(bad)
	assert.Error(t, err)
}

func TestRunCycleAnalyzesEveryPool(t *testing.T) {
	agent, _ := testAgent(t, 42)

	snapshot := agent.RunCycle(context.Background())

	require.Len(t, snapshot.Simulations, 3)
	for _, record := range snapshot.Simulations {
		assert.Empty(t, record.Error, "pool %s", record.Pool.PoolID)
		require.NotNil(t, record.Result, "pool %s", record.Pool.PoolID)
		assert.Equal(t, 200, record.Result.NumSimulations)
	}
}

func TestRunCycleEntersFirstPosition(t *testing.T) {
	agent, positions := testAgent(t, 42)

	snapshot := agent.RunCycle(context.Background())

	assert.Nil(t, snapshot.PositionBefore)
	assert.Equal(t, types.ActionReallocated, snapshot.Result.Action)
	require.NotNil(t, snapshot.PositionAfter)

	held, err := positions.Get("acct-test")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Result.Candidate, held.PoolID)
	assert.Greater(t, held.AmountUSD, 0.0)
}

func TestRunCycleHoldsFreshPosition(t *testing.T) {
	agent, positions := testAgent(t, 42)

	first := agent.RunCycle(context.Background())
	require.Equal(t, types.ActionReallocated, first.Result.Action)
	held, err := positions.Get("acct-test")
	require.NoError(t, err)

	// The position is minutes old; the holding-period gate blocks any move
	// and staying put is a no-op.
	second := agent.RunCycle(context.Background())
	assert.Equal(t, types.ActionNone, second.Result.Action)

	after, err := positions.Get("acct-test")
	require.NoError(t, err)
	assert.Equal(t, held.PoolID, after.PoolID)
	assert.Equal(t, held.EntryDate, after.EntryDate)
}

func TestRunCycleDeterministicAcrossAgents(t *testing.T) {
	a, _ := testAgent(t, 7)
	b, _ := testAgent(t, 7)

	first := a.RunCycle(context.Background())
	second := b.RunCycle(context.Background())

	assert.Equal(t, first.Result.Action, second.Result.Action)
	assert.Equal(t, first.Result.Candidate, second.Result.Candidate)

	require.Equal(t, len(first.Simulations), len(second.Simulations))
	for i := range first.Simulations {
		require.NotNil(t, first.Simulations[i].Result)
		require.NotNil(t, second.Simulations[i].Result)
		assert.Equal(t, first.Simulations[i].Result.Mean, second.Simulations[i].Result.Mean)
		assert.Equal(t, first.Simulations[i].Result.AnnualizedAPY, second.Simulations[i].Result.AnnualizedAPY)
	}
}
