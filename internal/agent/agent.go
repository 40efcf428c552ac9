/*
Scan-cycle orchestrator. Each cycle fetches the candidate pool set, runs the
full estimate-and-simulate pipeline per pool in parallel, hands the surviving
candidates to the decision engine, and persists a snapshot of what happened.
A pool whose analysis fails is dropped from that cycle; it never aborts the
cycle for the others.
*/

package agent

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/crestfi/yra/internal/datafetcher"
	"github.com/crestfi/yra/internal/decision"
	"github.com/crestfi/yra/internal/logger"
	"github.com/crestfi/yra/internal/ratemodel"
	"github.com/crestfi/yra/internal/simulator"
	"github.com/crestfi/yra/internal/state"
	"github.com/crestfi/yra/internal/stats"
	"github.com/crestfi/yra/internal/store"
	"github.com/crestfi/yra/internal/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultLookbackDays = 30

// Config holds the collaborators an Agent needs.
type Config struct {
	AccountID    types.AccountID
	PoolSource   datafetcher.PoolMetadataSource
	SeriesSource datafetcher.HistoricalSource
	Engine       *decision.Engine
	Positions    store.PositionStore
	Policy       types.DecisionPolicy

	// AvailableUSD is the idle capital deployed on the account's first entry.
	AvailableUSD float64

	// LookbackDays is the historical window fed into the estimators.
	// Defaults to 30.
	LookbackDays int

	// Seed fixes all simulation randomness for the agent. Two agents with the
	// same seed and the same inputs produce identical decisions.
	Seed int64

	// PersistSnapshots controls whether scan snapshots are written to the
	// database. Disabled in tests and dry runs without a database.
	PersistSnapshots bool
}

func validateConfig(cfg Config) error {
	if cfg.AccountID == "" {
		return fmt.Errorf("account ID cannot be empty")
	}
	if cfg.PoolSource == nil {
		return fmt.Errorf("pool source cannot be nil")
	}
	if cfg.SeriesSource == nil {
		return fmt.Errorf("series source cannot be nil")
	}
	if cfg.Engine == nil {
		return fmt.Errorf("decision engine cannot be nil")
	}
	if cfg.Positions == nil {
		return fmt.Errorf("position store cannot be nil")
	}
	if cfg.Policy.NumSimulations < simulator.MinSimulations {
		return fmt.Errorf("policy numSimulations %d below minimum %d", cfg.Policy.NumSimulations, simulator.MinSimulations)
	}
	if cfg.Policy.HoldingPeriodDays <= 0 {
		return fmt.Errorf("policy holding period must be positive")
	}
	return nil
}

// Agent drives the scan loop for one account.
type Agent struct {
	logger zerolog.Logger
	cfg    Config

	cycleCount int
}

func NewAgent(cfg Config) (*Agent, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("agent configuration validation failed: %w", err)
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = defaultLookbackDays
	}

	a := &Agent{
		logger: logger.GetForComponent("agent"),
		cfg:    cfg,
	}
	a.logger.Info().
		Str("account", string(cfg.AccountID)).
		Int("lookbackDays", cfg.LookbackDays).
		Int64("seed", cfg.Seed).
		Msg("Agent created")
	return a, nil
}

// RunLoop runs scan cycles at the given interval until the context is
// cancelled. The first cycle runs immediately.
func (a *Agent) RunLoop(ctx context.Context, interval time.Duration) {
	a.logger.Info().Dur("interval", interval).Msg("Starting agent main loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.cycleCount++
	a.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Agent loop stopped due to context cancellation")
			return
		case <-ticker.C:
			a.cycleCount++
			a.RunCycle(ctx)
		}
	}
}

// RunCycle executes one complete scan cycle and returns its snapshot.
func (a *Agent) RunCycle(ctx context.Context) types.ScanSnapshot {
	cycleStart := time.Now().UTC()
	cycleID := uuid.New().String()
	cycleLogger := a.logger.With().Str("cycle_id", cycleID).Int("cycle", a.cycleCount).Logger()

	cycleLogger.Info().Msg("--- Starting scan cycle ---")

	snapshot := types.ScanSnapshot{
		Timestamp: cycleStart,
		AccountID: a.cfg.AccountID,
	}
	if before, err := a.cfg.Positions.Get(a.cfg.AccountID); err == nil {
		snapshot.PositionBefore = &before
	}

	pools, err := a.cfg.PoolSource.ListPools()
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: failed to fetch pool set")
		snapshot.Result = types.ScanResult{Action: types.ActionError, Details: err.Error()}
		a.persist(&snapshot, cycleLogger)
		return snapshot
	}

	gasPriceGwei, nativePriceUSD, err := a.cfg.PoolSource.GasContext()
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: failed to fetch gas context")
		snapshot.Result = types.ScanResult{Action: types.ActionError, Details: err.Error()}
		a.persist(&snapshot, cycleLogger)
		return snapshot
	}
	quote := decision.GasQuote{GasPriceGwei: gasPriceGwei, NativePriceUSD: nativePriceUSD}

	cycleLogger.Info().
		Int("pools", len(pools)).
		Float64("gasPriceGwei", gasPriceGwei).
		Msg("Pool set and gas context fetched")

	// Fan out per-pool analysis; join before ranking. Slots keep the output
	// order stable regardless of goroutine scheduling.
	records := make([]types.PoolSimulationRecord, len(pools))
	var wg sync.WaitGroup
	for i, pool := range pools {
		wg.Add(1)
		go func(i int, pool types.PoolDescriptor) {
			defer wg.Done()
			result, err := a.analyzePool(pool, quote)
			record := types.PoolSimulationRecord{Pool: pool, Result: result}
			if err != nil {
				record.Error = err.Error()
				cycleLogger.Warn().
					Err(err).
					Str("pool", string(pool.PoolID)).
					Msg("Pool analysis failed; excluded from this cycle")
			}
			records[i] = record
		}(i, pool)
	}
	wg.Wait()
	snapshot.Simulations = records

	candidates := make([]decision.Candidate, 0, len(records))
	for _, record := range records {
		if record.Result != nil {
			candidates = append(candidates, decision.Candidate{Pool: record.Pool, Result: record.Result})
		}
	}
	cycleLogger.Info().
		Int("analyzed", len(pools)).
		Int("candidates", len(candidates)).
		Msg("Pool analysis complete")

	snapshot.Result = a.cfg.Engine.RunPass(a.cfg.AccountID, candidates, a.cfg.AvailableUSD, quote, cycleStart)

	if after, err := a.cfg.Positions.Get(a.cfg.AccountID); err == nil {
		snapshot.PositionAfter = &after
	}

	a.persist(&snapshot, cycleLogger)

	cycleLogger.Info().
		Str("action", string(snapshot.Result.Action)).
		Str("details", snapshot.Result.Details).
		Str("cycleDuration", time.Since(cycleStart).String()).
		Msg("--- Scan cycle completed ---")

	return snapshot
}

// analyzePool runs the estimate-and-simulate pipeline for one pool.
func (a *Agent) analyzePool(pool types.PoolDescriptor, quote decision.GasQuote) (*types.SimulationResult, error) {
	sampler := simulator.NewSampler(a.poolSeed(pool.PoolID))

	switch pool.Type {
	case types.PoolTypeLending:
		return a.analyzeLendingPool(pool, quote, sampler)
	case types.PoolTypeLP:
		return a.analyzeLPPool(pool, quote, sampler)
	default:
		return nil, fmt.Errorf("unknown pool type %q for pool %s", pool.Type, pool.PoolID)
	}
}

func (a *Agent) analyzeLendingPool(pool types.PoolDescriptor, quote decision.GasQuote, sampler *simulator.Sampler) (*types.SimulationResult, error) {
	series, err := a.cfg.SeriesSource.UtilizationSeries(pool.PoolID, a.cfg.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("utilization series for %s: %w", pool.PoolID, err)
	}
	utilization, err := stats.EstimateUtilization(series)
	if err != nil {
		return nil, fmt.Errorf("utilization estimation for %s: %w", pool.PoolID, err)
	}

	asset := pool.Asset()
	model, provenance := ratemodel.Resolve(pool.Protocol, asset)
	category := ratemodel.CategorizeAsset(asset)

	badDebt, err := stats.EstimateBadDebt(category, a.cfg.LookbackDays, 0)
	if err != nil {
		return nil, fmt.Errorf("bad debt estimation for %s: %w", pool.PoolID, err)
	}

	input := simulator.LendingSimulationInput{
		InitialValueUSD:   a.positionAmountOrDefault(),
		HoldingPeriodDays: a.cfg.Policy.HoldingPeriodDays,
		RateModel:         model,
		Utilization:       utilization,
		BadDebt:           badDebt,
		GasPriceGwei:      quote.GasPriceGwei,
		NativePriceUSD:    quote.NativePriceUSD,
		NumSimulations:    a.cfg.Policy.NumSimulations,
	}

	result, err := simulator.SimulateLending(input, sampler)
	if err != nil {
		return nil, fmt.Errorf("lending simulation for %s: %w", pool.PoolID, err)
	}

	a.logger.Debug().
		Str("pool", string(pool.PoolID)).
		Str("modelProvenance", string(provenance)).
		Str("assetCategory", string(category)).
		Float64("annualizedAPY", result.AnnualizedAPY).
		Msg("Lending pool analyzed")
	return result, nil
}

func (a *Agent) analyzeLPPool(pool types.PoolDescriptor, quote decision.GasQuote, sampler *simulator.Sampler) (*types.SimulationResult, error) {
	if pool.Exogenous == nil {
		return nil, fmt.Errorf("LP pool %s missing exogenous parameters", pool.PoolID)
	}

	series, err := a.cfg.SeriesSource.PriceRatioSeries(pool.PoolID, a.cfg.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("price ratio series for %s: %w", pool.PoolID, err)
	}
	logReturns, err := stats.EstimateLogReturns(series)
	if err != nil {
		return nil, fmt.Errorf("log return estimation for %s: %w", pool.PoolID, err)
	}

	// The live gas context supersedes whatever the metadata carried.
	exogenous := *pool.Exogenous
	exogenous.GasPriceGwei = quote.GasPriceGwei
	exogenous.NativePriceUSD = quote.NativePriceUSD

	input := simulator.LPSimulationInput{
		InitialValueUSD:   a.positionAmountOrDefault(),
		HoldingPeriodDays: a.cfg.Policy.HoldingPeriodDays,
		Exogenous:         exogenous,
		LogReturns:        logReturns,
		NumSimulations:    a.cfg.Policy.NumSimulations,
	}

	result, err := simulator.SimulateLP(input, sampler)
	if err != nil {
		return nil, fmt.Errorf("LP simulation for %s: %w", pool.PoolID, err)
	}

	a.logger.Debug().
		Str("pool", string(pool.PoolID)).
		Float64("annualizedAPY", result.AnnualizedAPY).
		Float64("harvestHours", result.HarvestFrequencyHours).
		Msg("LP pool analyzed")
	return result, nil
}

// positionAmountOrDefault sizes simulations by the held amount, falling back
// to the first-entry capital before any position exists.
func (a *Agent) positionAmountOrDefault() float64 {
	if position, err := a.cfg.Positions.Get(a.cfg.AccountID); err == nil && position.AmountUSD > 0 {
		return position.AmountUSD
	}
	if a.cfg.AvailableUSD > 0 {
		return a.cfg.AvailableUSD
	}
	return 10_000
}

// poolSeed derives a stable per-pool seed from the agent seed.
func (a *Agent) poolSeed(pool types.PoolID) int64 {
	h := fnv.New64a()
	h.Write([]byte(pool))
	return a.cfg.Seed ^ int64(h.Sum64())
}

func (a *Agent) persist(snapshot *types.ScanSnapshot, cycleLogger zerolog.Logger) {
	if !a.cfg.PersistSnapshots {
		return
	}
	if policyID, err := state.GetActiveDecisionPolicyID("default"); err == nil {
		snapshot.PolicyID = policyID
	}
	scanID, err := state.SaveScanSnapshot(*snapshot)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to save scan snapshot to database")
		return
	}
	snapshot.ScanID = scanID
	cycleLogger.Info().Int64("scan_id", scanID).Msg("Scan snapshot saved")
}
