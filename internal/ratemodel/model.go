/*

Kinked interest-rate curve for lending markets.

Rate = base + u * multiplier                                  (below kink)
Rate = base + kink * multiplier + (u - kink) * jumpMultiplier (above kink)

Both branches agree exactly at u == kink; the supply side scales the borrow
rate by utilization and the protocol's reserve cut.

*/

package ratemodel

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidModel = errors.New("invalid interest rate model")

// Model is a parametric kinked rate curve. All rates are annual fractions
// (0.04 = 4% APY); kink and reserve factor are fractions of utilization and
// interest respectively.
type Model struct {
	ModelType      string  `json:"model_type"` // e.g., "jump-rate"
	BaseRate       float64 `json:"base_rate"`
	Multiplier     float64 `json:"multiplier"`
	JumpMultiplier float64 `json:"jump_multiplier"`
	Kink           float64 `json:"kink"`
	ReserveFactor  float64 `json:"reserve_factor"`
}

// Validate enforces the model invariants: kink in (0,1), reserve factor in
// [0,1], all rates finite and non-negative.
func (m Model) Validate() error {
	rates := []struct {
		value float64
		name  string
	}{
		{m.BaseRate, "base rate"},
		{m.Multiplier, "multiplier"},
		{m.JumpMultiplier, "jump multiplier"},
	}
	for _, r := range rates {
		if math.IsNaN(r.value) || math.IsInf(r.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidModel, r.name)
		}
		if r.value < 0 {
			return fmt.Errorf("%w: %s cannot be negative", ErrInvalidModel, r.name)
		}
	}
	if !(m.Kink > 0 && m.Kink < 1) {
		return fmt.Errorf("%w: kink must be in (0,1), got %f", ErrInvalidModel, m.Kink)
	}
	if m.ReserveFactor < 0 || m.ReserveFactor > 1 {
		return fmt.Errorf("%w: reserve factor must be in [0,1], got %f", ErrInvalidModel, m.ReserveFactor)
	}
	return nil
}

// BorrowAPY returns the annual borrow rate at utilization u.
func BorrowAPY(u float64, m Model) float64 {
	if u <= m.Kink {
		return m.BaseRate + u*m.Multiplier
	}
	return m.BaseRate + m.Kink*m.Multiplier + (u-m.Kink)*m.JumpMultiplier
}

// SupplyAPY returns the annual supply rate at utilization u: the borrow rate
// earned on the utilized share, minus the protocol reserve cut.
func SupplyAPY(u float64, m Model) float64 {
	return BorrowAPY(u, m) * u * (1 - m.ReserveFactor)
}
