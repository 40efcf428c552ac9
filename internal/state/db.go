package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS decision_policies (
			policy_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			config_name VARCHAR(255) NOT NULL DEFAULT 'default',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			min_apy_improvement_pct DECIMAL(10, 4) NOT NULL,
			min_holding_period_days DECIMAL(10, 4) NOT NULL,
			gain_evaluation_days DECIMAL(10, 4) NOT NULL,
			max_break_even_days DECIMAL(10, 4) NOT NULL,
			max_gas_price_gwei DECIMAL(12, 4) NOT NULL,
			num_simulations INTEGER NOT NULL,
			holding_period_days DECIMAL(10, 4) NOT NULL,
			allowed_protocols JSONB,
			allowed_assets JSONB,
			max_slippage_pct DECIMAL(10, 4) NOT NULL,
			CONSTRAINT uq_decision_policies_config_version UNIQUE (config_name, version)
		);
		CREATE INDEX IF NOT EXISTS idx_decision_policies_config_active ON decision_policies(config_name, is_active, activated_at DESC);

		CREATE TABLE IF NOT EXISTS scan_results (
			scan_id SERIAL PRIMARY KEY,
			scan_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			account_id VARCHAR(255) NOT NULL,
			policy_id INTEGER REFERENCES decision_policies(policy_id),
			action VARCHAR(32) NOT NULL,
			details TEXT,
			tx_hash VARCHAR(255),
			candidate_pool VARCHAR(255),
			plan JSONB,
			receipts JSONB,
			position_before JSONB,
			position_after JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_scan_results_timestamp ON scan_results(scan_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_scan_results_account ON scan_results(account_id, scan_timestamp DESC);

		CREATE TABLE IF NOT EXISTS pool_simulations (
			simulation_id SERIAL PRIMARY KEY,
			scan_id INTEGER REFERENCES scan_results(scan_id) ON DELETE CASCADE,
			pool_id VARCHAR(255) NOT NULL,
			pool_type VARCHAR(32) NOT NULL,
			annualized_apy DECIMAL(20, 8),
			probability_of_loss DECIMAL(10, 8),
			result JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pool_simulations_scan ON pool_simulations(scan_id);
		CREATE INDEX IF NOT EXISTS idx_pool_simulations_pool ON pool_simulations(pool_id);
	`
	if _, err := DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
