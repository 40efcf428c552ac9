package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/crestfi/yra/internal/types"
	"github.com/rs/zerolog/log"
)

// SaveScanSnapshot saves a complete scan snapshot plus its per-pool
// simulation rows in one transaction.
func SaveScanSnapshot(snapshot types.ScanSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	planJSON, err := json.Marshal(snapshot.Result.Plan)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal plan: %w", err)
	}
	receiptsJSON, err := json.Marshal(snapshot.Result.Receipts)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal receipts: %w", err)
	}
	beforeJSON, err := json.Marshal(snapshot.PositionBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal position_before: %w", err)
	}
	afterJSON, err := json.Marshal(snapshot.PositionAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal position_after: %w", err)
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := `
		INSERT INTO scan_results (
			scan_timestamp, account_id, policy_id, action, details,
			tx_hash, candidate_pool, plan, receipts, position_before, position_after
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING scan_id;`

	var scanID int64
	err = tx.QueryRow(
		query,
		snapshot.Timestamp, snapshot.AccountID, snapshot.PolicyID,
		snapshot.Result.Action, snapshot.Result.Details,
		snapshot.Result.TxHash, snapshot.Result.Candidate,
		planJSON, receiptsJSON, beforeJSON, afterJSON,
	).Scan(&scanID)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan snapshot: %w", err)
	}

	simStmt := `
		INSERT INTO pool_simulations (scan_id, pool_id, pool_type, annualized_apy, probability_of_loss, result)
		VALUES ($1, $2, $3, $4, $5, $6);`
	for _, sim := range snapshot.Simulations {
		var resultJSON []byte
		resultJSON, err = json.Marshal(sim)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal simulation for pool %s: %w", sim.Pool.PoolID, err)
		}
		var apy, pol sql.NullFloat64
		if sim.Result != nil {
			apy = sql.NullFloat64{Float64: sim.Result.AnnualizedAPY, Valid: true}
			pol = sql.NullFloat64{Float64: sim.Result.ProbabilityOfLoss, Valid: true}
		}
		if _, err = tx.Exec(simStmt, scanID, sim.Pool.PoolID, sim.Pool.Type, apy, pol, resultJSON); err != nil {
			return 0, fmt.Errorf("failed to save simulation for pool %s: %w", sim.Pool.PoolID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan snapshot: %w", err)
	}

	log.Info().
		Int64("scan_id", scanID).
		Str("account", string(snapshot.AccountID)).
		Str("action", string(snapshot.Result.Action)).
		Int("simulations", len(snapshot.Simulations)).
		Msg("Scan snapshot saved to database")

	return scanID, nil
}

// GetRecentScans returns the most recent scan snapshots, newest first.
func GetRecentScans(limit int) ([]types.ScanSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT scan_id, scan_timestamp, account_id, policy_id, action, details,
		       tx_hash, candidate_pool, plan, receipts, position_before, position_after
		FROM scan_results
		ORDER BY scan_timestamp DESC
		LIMIT $1;`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scans: %w", err)
	}
	defer rows.Close()

	snapshots := make([]types.ScanSnapshot, 0, limit)
	for rows.Next() {
		snapshot, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan rows: %w", err)
	}
	return snapshots, nil
}

// GetScanByID returns one scan snapshot with its per-pool simulation rows.
func GetScanByID(scanID int64) (*types.ScanSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT scan_id, scan_timestamp, account_id, policy_id, action, details,
		       tx_hash, candidate_pool, plan, receipts, position_before, position_after
		FROM scan_results
		WHERE scan_id = $1;`

	row := DB.QueryRow(query, scanID)
	snapshot, err := scanSnapshotRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scan %d not found", scanID)
		}
		return nil, err
	}

	simQuery := `SELECT result FROM pool_simulations WHERE scan_id = $1 ORDER BY annualized_apy DESC NULLS LAST;`
	rows, err := DB.Query(simQuery, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulations for scan %d: %w", scanID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var resultJSON []byte
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan simulation row: %w", err)
		}
		var record types.PoolSimulationRecord
		if err := json.Unmarshal(resultJSON, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal simulation record: %w", err)
		}
		snapshot.Simulations = append(snapshot.Simulations, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating simulation rows: %w", err)
	}

	return &snapshot, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshotRow(row rowScanner) (types.ScanSnapshot, error) {
	var snapshot types.ScanSnapshot
	var policyID sql.NullInt64
	var details, txHash, candidate sql.NullString
	var planJSON, receiptsJSON, beforeJSON, afterJSON []byte

	err := row.Scan(
		&snapshot.ScanID, &snapshot.Timestamp, &snapshot.AccountID, &policyID,
		&snapshot.Result.Action, &details, &txHash, &candidate,
		&planJSON, &receiptsJSON, &beforeJSON, &afterJSON,
	)
	if err != nil {
		return types.ScanSnapshot{}, err
	}

	if policyID.Valid {
		snapshot.PolicyID = &policyID.Int64
	}
	snapshot.Result.Details = details.String
	snapshot.Result.TxHash = txHash.String
	snapshot.Result.Candidate = types.PoolID(candidate.String)

	if len(planJSON) > 0 && string(planJSON) != "null" {
		if err := json.Unmarshal(planJSON, &snapshot.Result.Plan); err != nil {
			return types.ScanSnapshot{}, fmt.Errorf("failed to unmarshal plan: %w", err)
		}
	}
	if len(receiptsJSON) > 0 && string(receiptsJSON) != "null" {
		if err := json.Unmarshal(receiptsJSON, &snapshot.Result.Receipts); err != nil {
			return types.ScanSnapshot{}, fmt.Errorf("failed to unmarshal receipts: %w", err)
		}
	}
	if len(beforeJSON) > 0 && string(beforeJSON) != "null" {
		if err := json.Unmarshal(beforeJSON, &snapshot.PositionBefore); err != nil {
			return types.ScanSnapshot{}, fmt.Errorf("failed to unmarshal position_before: %w", err)
		}
	}
	if len(afterJSON) > 0 && string(afterJSON) != "null" {
		if err := json.Unmarshal(afterJSON, &snapshot.PositionAfter); err != nil {
			return types.ScanSnapshot{}, fmt.Errorf("failed to unmarshal position_after: %w", err)
		}
	}

	return snapshot, nil
}
