package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crestfi/yra/internal/types"
	"github.com/rs/zerolog/log"
)

// SaveDecisionPolicy saves a new version of a decision policy.
func SaveDecisionPolicy(policy types.DecisionPolicy, configName string, version int, makeActive bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE decision_policies SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`
		if _, err = tx.Exec(stmtDeactivate, configName); err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active policy for %s: %w", configName, err)
		}
	}

	protocolsJSON, err := json.Marshal(policy.AllowedProtocols)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal allowed_protocols: %w", err)
	}
	assetsJSON, err := json.Marshal(policy.AllowedAssets)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal allowed_assets: %w", err)
	}

	stmt := `
		INSERT INTO decision_policies (
			version, config_name, is_active, activated_at, created_at,
			min_apy_improvement_pct, min_holding_period_days, gain_evaluation_days,
			max_break_even_days, max_gas_price_gwei, num_simulations, holding_period_days,
			allowed_protocols, allowed_assets, max_slippage_pct
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING policy_id;`

	var policyID int64
	currentTime := time.Now()
	err = tx.QueryRow(
		stmt,
		version, configName, makeActive, currentTime, currentTime,
		policy.MinAPYImprovementPct, policy.MinHoldingPeriodDays, policy.GainEvaluationDays,
		policy.MaxBreakEvenDays, policy.MaxGasPriceGwei, policy.NumSimulations, policy.HoldingPeriodDays,
		protocolsJSON, assetsJSON, policy.MaxSlippagePct,
	).Scan(&policyID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert decision policy: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int("version", version).
		Str("config", configName).
		Int64("policy_id", policyID).
		Bool("active", makeActive).
		Msg("Saved decision policy")
	return policyID, nil
}

// LoadActiveDecisionPolicy loads the currently active decision policy.
func LoadActiveDecisionPolicy(configName string) (*types.DecisionPolicy, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT
			min_apy_improvement_pct, min_holding_period_days, gain_evaluation_days,
			max_break_even_days, max_gas_price_gwei, num_simulations, holding_period_days,
			allowed_protocols, allowed_assets, max_slippage_pct
		FROM decision_policies
		WHERE config_name = $1 AND is_active = TRUE
		ORDER BY activated_at DESC
		LIMIT 1;`

	p := &types.DecisionPolicy{}
	var protocolsJSON, assetsJSON []byte
	row := DB.QueryRow(query, configName)
	err := row.Scan(
		&p.MinAPYImprovementPct, &p.MinHoldingPeriodDays, &p.GainEvaluationDays,
		&p.MaxBreakEvenDays, &p.MaxGasPriceGwei, &p.NumSimulations, &p.HoldingPeriodDays,
		&protocolsJSON, &assetsJSON, &p.MaxSlippagePct,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no active decision policy found for config '%s'", configName)
		}
		return nil, fmt.Errorf("failed to scan active decision policy for config '%s': %w", configName, err)
	}

	if len(protocolsJSON) > 0 {
		if err := json.Unmarshal(protocolsJSON, &p.AllowedProtocols); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allowed_protocols: %w", err)
		}
	}
	if len(assetsJSON) > 0 {
		if err := json.Unmarshal(assetsJSON, &p.AllowedAssets); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allowed_assets: %w", err)
		}
	}

	log.Info().Str("config", configName).Msg("Loaded active decision policy")
	return p, nil
}

// GetActiveDecisionPolicyID returns the policy_id of the currently active
// decision policy, or nil when none is active.
func GetActiveDecisionPolicyID(configName string) (*int64, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT policy_id
		FROM decision_policies
		WHERE config_name = $1 AND is_active = TRUE
		ORDER BY activated_at DESC
		LIMIT 1;`

	var policyID int64
	err := DB.QueryRow(query, configName).Scan(&policyID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debug().Str("config", configName).Msg("No active decision policy found")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active decision policy ID for config '%s': %w", configName, err)
	}

	return &policyID, nil
}
