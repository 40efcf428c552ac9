/*
Execution boundary. The decision engine produces a ReallocationPlan; an
executor carries it out step by step and reports per-step receipts. Execution
aborts on the first failed step and never retries — retrying a half-executed
plan on-chain is how funds get stranded.
*/

package executor

import (
	"errors"
	"time"

	"github.com/crestfi/yra/internal/types"
)

var ErrStepFailed = errors.New("plan step failed")

// PlanExecutor executes a reallocation plan. Confirmed is true only when
// every step succeeded; the receipts cover the steps attempted, in order.
type PlanExecutor interface {
	Execute(plan types.ReallocationPlan) (receipts []types.StepReceipt, confirmed bool, err error)
}

// NoopExecutor confirms every plan without touching anything. It is the
// default when live execution is not enabled, so a misconfigured deployment
// can never broadcast transactions.
type NoopExecutor struct{}

func (NoopExecutor) Execute(plan types.ReallocationPlan) ([]types.StepReceipt, bool, error) {
	receipts := make([]types.StepReceipt, len(plan.Steps))
	for i, step := range plan.Steps {
		receipts[i] = types.StepReceipt{
			Step:      step,
			Success:   true,
			TxHash:    "",
			Timestamp: time.Now().UTC(),
		}
	}
	return receipts, true, nil
}
