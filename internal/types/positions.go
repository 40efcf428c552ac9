/*

Types for held positions and the reallocation plans that move them. A Position
is owned exclusively by the decision engine: created on first entry, replaced
atomically on a confirmed reallocation, never partially mutated.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type AccountID string

// Position is the engine's record of where an account's capital currently
// sits.
type Position struct {
	PoolID    PoolID    `json:"pool_id"`
	Protocol  string    `json:"protocol"`
	Asset     string    `json:"asset"`
	APY       float64   `json:"apy"` // simulated APY at entry, percent
	EntryDate time.Time `json:"entry_date"`
	AmountUSD float64   `json:"amount_usd"`
}

// DaysSinceEntry reports the position's age at the given instant.
func (p Position) DaysSinceEntry(now time.Time) float64 {
	return now.Sub(p.EntryDate).Hours() / 24.0
}

// StepType defines the low-level operations a reallocation plan is built from.
type StepType string

const (
	StepWithdraw StepType = "WITHDRAW"
	StepSwap     StepType = "SWAP"
	StepApprove  StepType = "APPROVE"
	StepSupply   StepType = "SUPPLY"
)

// Rank orders step types for the plan's ordering invariant:
// withdraw precedes swap precedes approve precedes supply.
func (t StepType) Rank() int {
	switch t {
	case StepWithdraw:
		return 0
	case StepSwap:
		return 1
	case StepApprove:
		return 2
	case StepSupply:
		return 3
	}
	return 4
}

// PlanStep is a single executable step. AmountBase carries the exact
// base-unit token amount handed to the execution collaborator; AmountUSD is
// the informational USD value used for gas accounting and logging.
type PlanStep struct {
	Type       StepType    `json:"type"`
	Protocol   string      `json:"protocol"`
	Target     PoolID      `json:"target"`
	Token      string      `json:"token,omitempty"`
	AmountBase sdkmath.Int `json:"amount_base,omitempty"`
	AmountUSD  float64     `json:"amount_usd,omitempty"`
}

// ReallocationPlan is a pure value object describing an ordered sequence of
// steps. The engine never retries it internally; retry policy belongs to the
// execution collaborator.
type ReallocationPlan struct {
	AccountID   AccountID  `json:"account_id"`
	FromPool    PoolID     `json:"from_pool"`
	ToPool      PoolID     `json:"to_pool"`
	Steps       []PlanStep `json:"steps"`
	EstGasUSD   float64    `json:"estimated_gas_usd"`
	Description string     `json:"description"`
}

// StepReceipt reports the outcome of executing one plan step.
type StepReceipt struct {
	Step      PlanStep  `json:"step"`
	Success   bool      `json:"success"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ScanAction classifies the outcome of one decision pass.
type ScanAction string

const (
	ActionNone        ScanAction = "none"
	ActionReallocated ScanAction = "reallocated"
	ActionError       ScanAction = "error"
)

// ScanResult is the structured outcome of a scan cycle for one account.
type ScanResult struct {
	Action    ScanAction        `json:"action"`
	Details   string            `json:"details"`
	TxHash    string            `json:"tx_hash,omitempty"`
	Plan      *ReallocationPlan `json:"plan,omitempty"`
	Receipts  []StepReceipt     `json:"receipts,omitempty"`
	Candidate PoolID            `json:"candidate,omitempty"`
}
