package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// AccountID identifies the delegated account this agent instance manages.
	AccountID string

	// PoolsAPIURL is the base URL of the pool metadata provider.
	PoolsAPIURL string
	// SeriesAPIURL is the base URL of the historical series provider.
	SeriesAPIURL string
	// ExecutorURL is the base URL of the execution collaborator (session-key
	// signer + bundler sidecar).
	ExecutorURL string

	// ProviderMaxRetries bounds the retry loop for upstream data fetches.
	ProviderMaxRetries int
	// ProviderTimeoutSeconds is the per-request timeout for providers.
	ProviderTimeoutSeconds int

	// EntryCapitalUSD is the idle capital deployed on the account's first
	// entry.
	EntryCapitalUSD float64
	// SimulationSeed fixes all Monte Carlo randomness; identical seeds and
	// inputs reproduce identical decisions.
	SimulationSeed int
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	AccountID, err = getEnv("YRA_ACCOUNT_ID")
	if err != nil {
		return err
	}

	PoolsAPIURL, err = getEnv("POOLS_API_URL")
	if err != nil {
		return err
	}

	SeriesAPIURL, err = getEnv("SERIES_API_URL")
	if err != nil {
		return err
	}

	ExecutorURL, err = getEnv("EXECUTOR_URL")
	if err != nil {
		return err
	}

	ProviderMaxRetries, err = getEnvAsInt("PROVIDER_MAX_RETRIES")
	if err != nil {
		return err
	}

	ProviderTimeoutSeconds, err = getEnvAsInt("PROVIDER_TIMEOUT_SECONDS")
	if err != nil {
		return err
	}

	EntryCapitalUSD, err = getEnvAsFloat64("ENTRY_CAPITAL_USD")
	if err != nil {
		return err
	}

	SimulationSeed, err = getEnvAsInt("SIMULATION_SEED")
	if err != nil {
		return err
	}

	log.Debug().
		Str("AccountID", AccountID).
		Str("PoolsAPIURL", PoolsAPIURL).
		Str("SeriesAPIURL", SeriesAPIURL).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsInt retrieves an environment variable as an int. Returns error if not set or invalid.
func getEnvAsInt(key string) (int, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFloat64 retrieves an environment variable as a float64. Returns error if not set or invalid.
func getEnvAsFloat64(key string) (float64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}
