package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/crestfi/yra/internal/logger"
	"github.com/crestfi/yra/internal/state"
	"github.com/crestfi/yra/internal/store"
	"github.com/crestfi/yra/internal/types"
	"github.com/gorilla/mux"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the engine's scan history, positions and policy over
// HTTP for dashboards and operators.
type WebServer struct {
	router     *mux.Router
	port       string
	positions  store.PositionStore
	configName string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, positions store.PositionStore, configName string) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:     mux.NewRouter(),
		port:       port,
		positions:  positions,
		configName: configName,
	}
	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/scans", ws.handleGetScans).Methods("GET")
	api.HandleFunc("/scans/latest", ws.handleGetLatestScan).Methods("GET")
	api.HandleFunc("/scans/{id}", ws.handleGetScan).Methods("GET")
	api.HandleFunc("/positions", ws.handleGetPositions).Methods("GET")
	api.HandleFunc("/policy", ws.handleGetPolicy).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// handleHealth returns server and database health
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	status := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		status = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"engine_status": map[string]interface{}{
			"database_healthy": dbHealthy,
			"tracked_accounts": len(ws.positions.Accounts()),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetScans returns paginated scan history
func (ws *WebServer) handleGetScans(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	scans, err := state.GetRecentScans(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent scans")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve scans")
		return
	}

	response := map[string]interface{}{
		"scans": scans,
		"count": len(scans),
		"limit": limit,
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetScan returns a specific scan with its simulation rows
func (ws *WebServer) handleGetScan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid scan ID")
		return
	}

	scan, err := state.GetScanByID(id)
	if err != nil {
		webLogger.Error().Err(err).Int64("scanId", id).Msg("Failed to get scan")
		ws.writeErrorResponse(w, http.StatusNotFound, "Scan not found")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, scan)
}

// handleGetLatestScan returns the most recent scan
func (ws *WebServer) handleGetLatestScan(w http.ResponseWriter, r *http.Request) {
	scans, err := state.GetRecentScans(1)
	if err != nil || len(scans) == 0 {
		webLogger.Error().Err(err).Msg("Failed to get latest scan")
		ws.writeErrorResponse(w, http.StatusNotFound, "No scans found")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, scans[0])
}

// handleGetPositions returns all tracked positions
func (ws *WebServer) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	accounts := ws.positions.Accounts()
	positions := make(map[string]types.Position, len(accounts))
	for _, account := range accounts {
		if position, err := ws.positions.Get(account); err == nil {
			positions[string(account)] = position
		}
	}

	response := map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
		"timestamp": time.Now().UTC(),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPolicy returns the active decision policy
func (ws *WebServer) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := state.LoadActiveDecisionPolicy(ws.configName)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get decision policy")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve decision policy")
		return
	}

	response := map[string]interface{}{
		"policy":    policy,
		"timestamp": time.Now().UTC(),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}
	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
