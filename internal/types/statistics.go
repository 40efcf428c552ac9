/*

Types for the statistical layer: distributional parameters estimated from
historical series, and the Monte Carlo outputs built on top of them. All of
these are plain numeric value objects so a SimulationResult can be persisted
and audited without dragging protocol types along.

*/

package types

import "time"

// UtilizationStatistics summarizes a lending pool's utilization over a
// lookback window. All values are fractions in [0, 1].
type UtilizationStatistics struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// BadDebtEvent is a single observed or modeled socialized-loss event.
type BadDebtEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	LossFraction float64   `json:"loss_fraction"` // fraction of pool capital lost, in [0, 1]
	Cause        string    `json:"cause"`
}

// BadDebtStatistics is the event-rate/severity profile used to draw bad-debt
// losses during simulation. Frequency scales with holding-period length;
// severity deliberately does not.
type BadDebtStatistics struct {
	EventCount       int            `json:"event_count"`
	TotalLoss        float64        `json:"total_loss"`
	MeanLossPerEvent float64        `json:"mean_loss_per_event"`
	AnnualizedRate   float64        `json:"annualized_rate"` // expected annual loss fraction
	EventsPerYear    float64        `json:"events_per_year"`
	Events           []BadDebtEvent `json:"events,omitempty"`
}

// LogReturnParameters holds drift/volatility estimated from a price or
// price-ratio series sampled daily.
type LogReturnParameters struct {
	DailyMu         float64 `json:"daily_mu"`
	DailySigma      float64 `json:"daily_sigma"`
	AnnualizedMu    float64 `json:"annualized_mu"`
	AnnualizedSigma float64 `json:"annualized_sigma"`
	SampleSize      int     `json:"sample_size"`
}

// SimulationScenario is one Monte Carlo draw: the sampled input (a
// utilization or a price ratio, depending on the model) and the outcome it
// produced.
type SimulationScenario struct {
	Input              float64            `json:"input"`
	FinalValue         float64            `json:"final_value"`
	ReturnPercent      float64            `json:"return_percent"`
	ComponentBreakdown map[string]float64 `json:"component_breakdown,omitempty"`
}

// SimulationResult aggregates a full Monte Carlo run into summary statistics.
// It is numeric-only and JSON-serializable for audit/persistence.
type SimulationResult struct {
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Std          float64 `json:"std"`
	Percentile5  float64 `json:"percentile_5"`
	Percentile25 float64 `json:"percentile_25"`
	Percentile75 float64 `json:"percentile_75"`
	Percentile95 float64 `json:"percentile_95"`

	ProbabilityOfLoss float64 `json:"probability_of_loss"` // fraction of scenarios with negative return
	ValueAtRisk5      float64 `json:"value_at_risk_5"`     // 5th-percentile final value
	SharpeRatio       float64 `json:"sharpe_ratio"`        // 0 when return std is 0
	MaxDrawdown       float64 `json:"max_drawdown"`        // worst single-scenario return percent

	MeanReturnPercent     float64 `json:"mean_return_percent"`
	AnnualizedAPY         float64 `json:"annualized_apy"` // percent
	HarvestFrequencyHours float64 `json:"harvest_frequency_hours,omitempty"`
	HarvestFrequencyDays  float64 `json:"harvest_frequency_days,omitempty"`
	BreakEvenDays         float64 `json:"break_even_days,omitempty"`

	NumSimulations     int                `json:"num_simulations"`
	DistributionParams map[string]float64 `json:"distribution_params,omitempty"`

	// Scenarios are kept for in-process inspection only, never persisted.
	Scenarios []SimulationScenario `json:"-"`
}
