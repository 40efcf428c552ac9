/*
Reallocation plan construction. A plan is a pure value object: an ordered
list of steps (withdraw, optional swap, approve, supply) with a gas estimate.
Building a plan commits to nothing; only a confirmed execution mutates the
position store.
*/

package decision

import (
	"fmt"

	"github.com/crestfi/yra/internal/types"
	"github.com/crestfi/yra/internal/utils"
)

// Gas unit budgets per step class.
const (
	withdrawGasUnits = 200000
	swapGasUnits     = 180000
	approveGasUnits  = 60000
	supplyGasUnits   = 220000
	gweiToNative     = 1e-9
)

// Plan-step USD amounts are carried in 6-decimal base units, matching
// stablecoin precision.
const planAmountPrecision = 6

// GasQuote is the network gas context a plan is priced against.
type GasQuote struct {
	GasPriceGwei   float64 `json:"gas_price_gwei"`
	NativePriceUSD float64 `json:"native_price_usd"`
}

func (q GasQuote) stepCostUSD(units int) float64 {
	return float64(units) * q.GasPriceGwei * gweiToNative * q.NativePriceUSD
}

// BuildReallocationPlan produces the step sequence moving an account's
// capital from its current position into the candidate pool. The swap step
// appears only when the two pools denominate in different assets.
func BuildReallocationPlan(account types.AccountID, current types.Position, candidate Candidate, quote GasQuote) (types.ReallocationPlan, error) {
	amountBase, err := utils.Float64ToBaseUnits(current.AmountUSD, planAmountPrecision)
	if err != nil {
		return types.ReallocationPlan{}, fmt.Errorf("failed to convert plan amount: %w", err)
	}

	candidateAsset := candidate.Pool.Asset()

	steps := []types.PlanStep{
		{
			Type:       types.StepWithdraw,
			Protocol:   current.Protocol,
			Target:     current.PoolID,
			Token:      current.Asset,
			AmountBase: amountBase,
			AmountUSD:  current.AmountUSD,
		},
	}
	gasUSD := quote.stepCostUSD(withdrawGasUnits)

	if current.Asset != candidateAsset {
		steps = append(steps, types.PlanStep{
			Type:       types.StepSwap,
			Protocol:   candidate.Pool.Protocol,
			Target:     candidate.Pool.PoolID,
			Token:      candidateAsset,
			AmountBase: amountBase,
			AmountUSD:  current.AmountUSD,
		})
		gasUSD += quote.stepCostUSD(swapGasUnits)
	}

	steps = append(steps,
		types.PlanStep{
			Type:       types.StepApprove,
			Protocol:   candidate.Pool.Protocol,
			Target:     candidate.Pool.PoolID,
			Token:      candidateAsset,
			AmountBase: amountBase,
			AmountUSD:  current.AmountUSD,
		},
		types.PlanStep{
			Type:       types.StepSupply,
			Protocol:   candidate.Pool.Protocol,
			Target:     candidate.Pool.PoolID,
			Token:      candidateAsset,
			AmountBase: amountBase,
			AmountUSD:  current.AmountUSD,
		},
	)
	gasUSD += quote.stepCostUSD(approveGasUnits) + quote.stepCostUSD(supplyGasUnits)

	return types.ReallocationPlan{
		AccountID: account,
		FromPool:  current.PoolID,
		ToPool:    candidate.Pool.PoolID,
		Steps:     steps,
		EstGasUSD: gasUSD,
		Description: fmt.Sprintf("Reallocate %.2f USD from %s (%s) to %s (%s)",
			current.AmountUSD, current.PoolID, current.Protocol, candidate.Pool.PoolID, candidate.Pool.Protocol),
	}, nil
}

// BuildEntryPlan produces the step sequence for an account's first entry:
// approve then supply, no withdrawal and no swap.
func BuildEntryPlan(account types.AccountID, candidate Candidate, amountUSD float64, quote GasQuote) (types.ReallocationPlan, error) {
	amountBase, err := utils.Float64ToBaseUnits(amountUSD, planAmountPrecision)
	if err != nil {
		return types.ReallocationPlan{}, fmt.Errorf("failed to convert plan amount: %w", err)
	}

	candidateAsset := candidate.Pool.Asset()
	steps := []types.PlanStep{
		{
			Type:       types.StepApprove,
			Protocol:   candidate.Pool.Protocol,
			Target:     candidate.Pool.PoolID,
			Token:      candidateAsset,
			AmountBase: amountBase,
			AmountUSD:  amountUSD,
		},
		{
			Type:       types.StepSupply,
			Protocol:   candidate.Pool.Protocol,
			Target:     candidate.Pool.PoolID,
			Token:      candidateAsset,
			AmountBase: amountBase,
			AmountUSD:  amountUSD,
		},
	}

	return types.ReallocationPlan{
		AccountID: account,
		ToPool:    candidate.Pool.PoolID,
		Steps:     steps,
		EstGasUSD: quote.stepCostUSD(approveGasUnits) + quote.stepCostUSD(supplyGasUnits),
		Description: fmt.Sprintf("Enter %s (%s) with %.2f USD",
			candidate.Pool.PoolID, candidate.Pool.Protocol, amountUSD),
	}, nil
}
