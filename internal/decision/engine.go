/*
Reallocation decision engine. Candidates arrive ranked-or-not with their
simulation results; the engine ranks them, runs the gate sequence against the
account's current position, and, when a move clears every gate, builds and
executes the plan. The stored position is replaced only after the executor
confirms the full plan.

Gates are evaluated in a fixed order and the first failure decides the
outcome: holding period, then APY improvement, then profitability.
*/

package decision

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/crestfi/yra/internal/executor"
	"github.com/crestfi/yra/internal/logger"
	"github.com/crestfi/yra/internal/store"
	"github.com/crestfi/yra/internal/types"
)

var (
	ErrNoCandidates  = errors.New("no eligible candidates")
	ErrNilDependency = errors.New("engine dependency cannot be nil")
)

var decisionLogger = logger.GetForComponent("decision_engine")

// Candidate pairs a pool with its completed simulation.
type Candidate struct {
	Pool   types.PoolDescriptor    `json:"pool"`
	Result *types.SimulationResult `json:"result"`
}

// AnnualizedAPY is the candidate's simulated mean annualized yield.
func (c Candidate) AnnualizedAPY() float64 {
	if c.Result == nil {
		return 0
	}
	return c.Result.AnnualizedAPY
}

// Evaluation records the gate sequence outcome for one candidate. Reasons
// accumulate in gate order; the first rejection terminates evaluation.
type Evaluation struct {
	Approved   bool     `json:"approved"`
	FailedGate string   `json:"failed_gate,omitempty"`
	Reasons    []string `json:"reasons"`
}

// Engine owns the decision pass for all accounts. Per-account locking keeps
// concurrent passes from racing on the same position.
type Engine struct {
	positions store.PositionStore
	executor  executor.PlanExecutor
	policy    types.DecisionPolicy

	mu    sync.Mutex
	locks map[types.AccountID]*sync.Mutex
}

func NewEngine(positions store.PositionStore, exec executor.PlanExecutor, policy types.DecisionPolicy) (*Engine, error) {
	if positions == nil {
		return nil, fmt.Errorf("%w: position store", ErrNilDependency)
	}
	if exec == nil {
		return nil, fmt.Errorf("%w: plan executor", ErrNilDependency)
	}
	return &Engine{
		positions: positions,
		executor:  exec,
		policy:    policy,
		locks:     make(map[types.AccountID]*sync.Mutex),
	}, nil
}

func (e *Engine) accountLock(account types.AccountID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[account]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[account] = lock
	}
	return lock
}

// RankCandidates orders candidates by simulated mean annualized APY,
// descending, breaking ties toward the lower probability of loss. Candidates
// outside the policy's protocol or asset allowlists are dropped.
func (e *Engine) RankCandidates(candidates []Candidate) []Candidate {
	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Result == nil {
			continue
		}
		if !e.policy.AllowsProtocol(c.Pool.Protocol) || !e.policy.AllowsAsset(c.Pool.Asset()) {
			continue
		}
		eligible = append(eligible, c)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Result.AnnualizedAPY != eligible[j].Result.AnnualizedAPY {
			return eligible[i].Result.AnnualizedAPY > eligible[j].Result.AnnualizedAPY
		}
		return eligible[i].Result.ProbabilityOfLoss < eligible[j].Result.ProbabilityOfLoss
	})
	return eligible
}

// Evaluate runs the ordered gate sequence for moving the current position
// into the candidate. The plan's gas estimate feeds the profitability gate.
func (e *Engine) Evaluate(current types.Position, candidate Candidate, plan types.ReallocationPlan, quote GasQuote, now time.Time) Evaluation {
	eval := Evaluation{Reasons: []string{}}

	// Gate 1: holding period.
	age := current.DaysSinceEntry(now)
	if age < e.policy.MinHoldingPeriodDays {
		eval.FailedGate = "holding_period"
		eval.Reasons = append(eval.Reasons, fmt.Sprintf(
			"position age %.1f days below minimum %.1f", age, e.policy.MinHoldingPeriodDays))
		return eval
	}
	eval.Reasons = append(eval.Reasons, fmt.Sprintf("position age %.1f days", age))

	// Gate 2: APY improvement.
	improvement := candidate.AnnualizedAPY() - current.APY
	if improvement < e.policy.MinAPYImprovementPct {
		eval.FailedGate = "improvement"
		eval.Reasons = append(eval.Reasons, fmt.Sprintf(
			"APY improvement %.2f pts below minimum %.2f", improvement, e.policy.MinAPYImprovementPct))
		return eval
	}
	eval.Reasons = append(eval.Reasons, fmt.Sprintf("APY improvement %.2f pts", improvement))

	// Gate 3: profitability. Congested gas blocks the move outright; the
	// projected gain over the evaluation horizon must exceed the plan's gas;
	// the move must pay for itself within the break-even cap.
	if e.policy.MaxGasPriceGwei > 0 && quote.GasPriceGwei > e.policy.MaxGasPriceGwei {
		eval.FailedGate = "profitability"
		eval.Reasons = append(eval.Reasons, fmt.Sprintf(
			"gas price %.1f gwei above cap %.1f", quote.GasPriceGwei, e.policy.MaxGasPriceGwei))
		return eval
	}

	projectedGain := current.AmountUSD * improvement / 100 * e.policy.GainEvaluationDays / 365
	if projectedGain <= plan.EstGasUSD {
		eval.FailedGate = "profitability"
		eval.Reasons = append(eval.Reasons, fmt.Sprintf(
			"projected %.1f-day gain %.4f USD does not cover gas %.4f USD",
			e.policy.GainEvaluationDays, projectedGain, plan.EstGasUSD))
		return eval
	}

	if candidate.Result.BreakEvenDays > e.policy.MaxBreakEvenDays {
		eval.FailedGate = "profitability"
		eval.Reasons = append(eval.Reasons, fmt.Sprintf(
			"break-even %.1f days above cap %.1f", candidate.Result.BreakEvenDays, e.policy.MaxBreakEvenDays))
		return eval
	}

	eval.Approved = true
	eval.Reasons = append(eval.Reasons, fmt.Sprintf(
		"projected gain %.4f USD covers gas %.4f USD", projectedGain, plan.EstGasUSD))
	return eval
}

// RunPass executes one decision pass for an account: rank the candidates,
// gate the best one against the current position, and execute the plan when
// approved. The stored position changes only on a confirmed execution.
// availableUSD is the idle capital used for a first entry; it is ignored when
// the account already holds a position.
func (e *Engine) RunPass(account types.AccountID, candidates []Candidate, availableUSD float64, quote GasQuote, now time.Time) types.ScanResult {
	lock := e.accountLock(account)
	lock.Lock()
	defer lock.Unlock()

	ranked := e.RankCandidates(candidates)
	if len(ranked) == 0 {
		return types.ScanResult{Action: types.ActionNone, Details: "no eligible candidates"}
	}
	best := ranked[0]

	current, err := e.positions.Get(account)
	if errors.Is(err, store.ErrNoPosition) {
		return e.enterFirstPosition(account, best, availableUSD, quote, now)
	}
	if err != nil {
		return types.ScanResult{Action: types.ActionError, Details: err.Error()}
	}

	if best.Pool.PoolID == current.PoolID {
		return types.ScanResult{
			Action:    types.ActionNone,
			Details:   "already in the top-ranked pool",
			Candidate: best.Pool.PoolID,
		}
	}

	plan, err := BuildReallocationPlan(account, current, best, quote)
	if err != nil {
		return types.ScanResult{Action: types.ActionError, Details: err.Error()}
	}

	eval := e.Evaluate(current, best, plan, quote, now)
	if !eval.Approved {
		decisionLogger.Info().
			Str("account", string(account)).
			Str("candidate", string(best.Pool.PoolID)).
			Str("failedGate", eval.FailedGate).
			Strs("reasons", eval.Reasons).
			Msg("Reallocation rejected")
		return types.ScanResult{
			Action:    types.ActionNone,
			Details:   fmt.Sprintf("rejected at %s gate: %s", eval.FailedGate, eval.Reasons[len(eval.Reasons)-1]),
			Candidate: best.Pool.PoolID,
		}
	}

	receipts, confirmed, err := e.executor.Execute(plan)
	if err != nil || !confirmed {
		decisionLogger.Error().
			Err(err).
			Str("account", string(account)).
			Str("plan", plan.Description).
			Int("receipts", len(receipts)).
			Msg("Plan execution failed; position left untouched")
		details := "plan execution failed"
		if err != nil {
			details = err.Error()
		}
		return types.ScanResult{
			Action:    types.ActionError,
			Details:   details,
			Plan:      &plan,
			Receipts:  receipts,
			Candidate: best.Pool.PoolID,
		}
	}

	newPosition := types.Position{
		PoolID:    best.Pool.PoolID,
		Protocol:  best.Pool.Protocol,
		Asset:     best.Pool.Asset(),
		APY:       best.AnnualizedAPY(),
		EntryDate: now,
		AmountUSD: current.AmountUSD - plan.EstGasUSD,
	}
	if err := e.positions.Replace(account, newPosition); err != nil {
		return types.ScanResult{Action: types.ActionError, Details: err.Error(), Plan: &plan, Receipts: receipts}
	}

	decisionLogger.Info().
		Str("account", string(account)).
		Str("fromPool", string(plan.FromPool)).
		Str("toPool", string(plan.ToPool)).
		Float64("newAPY", newPosition.APY).
		Msg("Reallocation executed and position replaced")

	return types.ScanResult{
		Action:    types.ActionReallocated,
		Details:   plan.Description,
		TxHash:    lastTxHash(receipts),
		Plan:      &plan,
		Receipts:  receipts,
		Candidate: best.Pool.PoolID,
	}
}

// enterFirstPosition supplies into the top-ranked pool when the account holds
// nothing yet. First entry skips the reallocation gates; there is no position
// to protect and nothing to compare against.
func (e *Engine) enterFirstPosition(account types.AccountID, best Candidate, amountUSD float64, quote GasQuote, now time.Time) types.ScanResult {
	if amountUSD <= 0 {
		return types.ScanResult{Action: types.ActionNone, Details: "no capital available for first entry"}
	}

	plan, err := BuildEntryPlan(account, best, amountUSD, quote)
	if err != nil {
		return types.ScanResult{Action: types.ActionError, Details: err.Error()}
	}

	receipts, confirmed, err := e.executor.Execute(plan)
	if err != nil || !confirmed {
		details := "entry execution failed"
		if err != nil {
			details = err.Error()
		}
		return types.ScanResult{Action: types.ActionError, Details: details, Plan: &plan, Receipts: receipts}
	}

	position := types.Position{
		PoolID:    best.Pool.PoolID,
		Protocol:  best.Pool.Protocol,
		Asset:     best.Pool.Asset(),
		APY:       best.AnnualizedAPY(),
		EntryDate: now,
		AmountUSD: amountUSD - plan.EstGasUSD,
	}
	if err := e.positions.Replace(account, position); err != nil {
		return types.ScanResult{Action: types.ActionError, Details: err.Error(), Plan: &plan, Receipts: receipts}
	}

	decisionLogger.Info().
		Str("account", string(account)).
		Str("pool", string(best.Pool.PoolID)).
		Float64("amountUSD", amountUSD).
		Msg("First position entered")

	return types.ScanResult{
		Action:    types.ActionReallocated,
		Details:   plan.Description,
		TxHash:    lastTxHash(receipts),
		Plan:      &plan,
		Receipts:  receipts,
		Candidate: best.Pool.PoolID,
	}
}

func lastTxHash(receipts []types.StepReceipt) string {
	for i := len(receipts) - 1; i >= 0; i-- {
		if receipts[i].TxHash != "" {
			return receipts[i].TxHash
		}
	}
	return ""
}
