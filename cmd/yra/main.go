package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/crestfi/yra/internal/agent"
	"github.com/crestfi/yra/internal/config"
	"github.com/crestfi/yra/internal/datafetcher"
	"github.com/crestfi/yra/internal/decision"
	"github.com/crestfi/yra/internal/executor"
	"github.com/crestfi/yra/internal/logger"
	"github.com/crestfi/yra/internal/state"
	"github.com/crestfi/yra/internal/store"
	"github.com/crestfi/yra/internal/types"
	"github.com/crestfi/yra/internal/web"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	LOOP_INTERVAL = 1 * time.Hour

	DEFAULT_POLICY_CONFIG_NAME    = "default"
	DEFAULT_POLICY_CONFIG_VERSION = 1
)

// main is the entry point for the yield reallocation agent.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Yield reallocation agent starting...")

	// Initialize database connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Load decision policy, seeding the default on first run
	policy, err := state.LoadActiveDecisionPolicy(DEFAULT_POLICY_CONFIG_NAME)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load active decision policy, using defaults and saving.")
		defaultPolicy := config.DefaultDecisionPolicy
		if _, err := state.SaveDecisionPolicy(defaultPolicy, DEFAULT_POLICY_CONFIG_NAME, DEFAULT_POLICY_CONFIG_VERSION, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to save initial default decision policy.")
		}
		policy = &defaultPolicy
	}
	log.Info().Msg("Decision policy loaded successfully.")

	positions := store.NewMemoryPositionStore()

	// --- Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	webServer := web.NewWebServer(webPort, positions, DEFAULT_POLICY_CONFIG_NAME)
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 2. Provider and Executor Wiring (with Safety Switch) ---
	providerTimeout := time.Duration(config.ProviderTimeoutSeconds) * time.Second

	var poolSource datafetcher.PoolMetadataSource
	var seriesSource datafetcher.HistoricalSource
	var planExecutor executor.PlanExecutor

	switch mode := os.Getenv("YRA_MODE"); mode {
	case "live":
		log.Warn().Msg("Initializing in LIVE mode. Real transactions will be submitted.")
		poolSource = datafetcher.NewHTTPPoolSource(config.PoolsAPIURL, providerTimeout, config.ProviderMaxRetries)
		seriesSource = datafetcher.NewHTTPSeriesSource(config.SeriesAPIURL, providerTimeout, config.ProviderMaxRetries)
		planExecutor = executor.NewHTTPExecutor(config.ExecutorURL, providerTimeout)
	case "dry":
		log.Info().Msg("Initializing in DRY mode. Synthetic data, no transactions.")
		synthetic := datafetcher.NewSyntheticSource(int64(config.SimulationSeed))
		poolSource = synthetic
		seriesSource = synthetic
		planExecutor = executor.NoopExecutor{}
	default:
		log.Fatal().Str("mode", mode).Msg("YRA_MODE must be 'live' or 'dry'. Halting to prevent accidental execution.")
	}

	// --- 3. Create Decision Engine and Agent ---
	engine, err := decision.NewEngine(positions, planExecutor, *policy)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create decision engine")
	}

	agentInstance, err := agent.NewAgent(agent.Config{
		AccountID:        types.AccountID(config.AccountID),
		PoolSource:       poolSource,
		SeriesSource:     seriesSource,
		Engine:           engine,
		Positions:        positions,
		Policy:           *policy,
		AvailableUSD:     config.EntryCapitalUSD,
		Seed:             int64(config.SimulationSeed),
		PersistSnapshots: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create agent")
	}

	// --- 4. Start Main Loop ---
	log.Info().Str("interval", LOOP_INTERVAL.String()).Msg("Starting agent main loop")
	agentInstance.RunLoop(context.Background(), LOOP_INTERVAL)
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
