package types

import "time"

// PoolSimulationRecord pairs a pool with the simulation result produced for
// it during one scan, for persistence and the API.
type PoolSimulationRecord struct {
	Pool   PoolDescriptor    `json:"pool"`
	Result *SimulationResult `json:"result"`
	Error  string            `json:"error,omitempty"`
}

// ScanSnapshot is the persisted record of one scan cycle for one account:
// what was simulated, what was decided, and how the position changed.
type ScanSnapshot struct {
	ScanID         int64                  `json:"scan_id,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	AccountID      AccountID              `json:"account_id"`
	PolicyID       *int64                 `json:"policy_id,omitempty"`
	Result         ScanResult             `json:"result"`
	PositionBefore *Position              `json:"position_before,omitempty"`
	PositionAfter  *Position              `json:"position_after,omitempty"`
	Simulations    []PoolSimulationRecord `json:"simulations,omitempty"`
}
