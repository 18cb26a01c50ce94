// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soothill/octopus-energy-cache/cache"
	"github.com/soothill/octopus-energy-cache/config"
	"github.com/soothill/octopus-energy-cache/costing"
	"github.com/soothill/octopus-energy-cache/octopus"
	"github.com/soothill/octopus-energy-cache/pkg/interfaces"
	"github.com/soothill/octopus-energy-cache/pkg/logger"
	"github.com/soothill/octopus-energy-cache/pkg/metrics"
	"github.com/soothill/octopus-energy-cache/pkg/slacknotifier"
	"github.com/soothill/octopus-energy-cache/storage"
	"golang.org/x/time/rate"
)

const (
	signalChannelSize     = 1
	refreshTimeout        = 2 * time.Minute
	requestTimeout        = 30 * time.Second
	readinessCheckTimeout = 2 * time.Second
	shutdownTimeout       = 5 * time.Second
	defaultCheapestSlots  = 10
	queryTimeFormat       = "2006-01-02T15:04:05Z"
)

// App represents the main application
type App struct {
	cfg           *config.Config
	port          string
	server        *http.Server
	store         *storage.SQLiteStore
	client        *octopus.Client
	source        *cache.Source
	notifier      *slacknotifier.Notifier
	configWatcher *config.Watcher
	costLocation  *time.Location
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.String("port", "9090", "Port for the local HTTP API and metrics endpoint")
	healthCheck := flag.Bool("health-check", false, "Perform health check and exit")
	validateConfig := flag.Bool("validate-config", false, "Validate configuration file and exit")
	flag.Parse()

	if *healthCheck {
		os.Exit(performHealthCheck(*configPath))
	}

	if *validateConfig {
		os.Exit(performConfigValidation(*configPath))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Initialize("error")
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(cfg.Logging.Level)

	logger.Info().Msg("Starting Octopus Energy Cache")
	logger.Info().Dur("rates_interval", cfg.Refresh.RatesInterval).
		Dur("consumption_interval", cfg.Refresh.ConsumptionInterval).
		Str("cache_path", cfg.Cache.Path).
		Msg("Configuration loaded")

	configChan := make(chan *config.Config)
	configWatcher := config.NewWatcher(*configPath, configChan)

	application, err := New(cfg, *port, configWatcher)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create application")
	}

	setupDebugSignalHandlers(application)

	application.Run(configChan)
}

// New creates a new application instance
func New(cfg *config.Config, port string, configWatcher *config.Watcher) (*App, error) {
	app := &App{
		cfg:           cfg,
		port:          port,
		configWatcher: configWatcher,
	}

	err := app.initializeComponents()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeComponents initializes all application components
func (a *App) initializeComponents() error {
	// Initialize Slack notifier
	a.notifier = slacknotifier.New(a.cfg.Notifications.SlackWebhookURL)
	if a.notifier.IsEnabled() {
		logger.Info().Msg("Slack notifications enabled")
	} else {
		logger.Info().Msg("Slack notifications disabled (no webhook URL configured)")
	}
	notifierAdapter := slacknotifier.NewCacheNotifierAdapter(a.notifier)

	// Initialize SQLite cache store
	store, err := storage.Open(a.cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	a.store = store
	logger.Info().Str("path", a.cfg.Cache.Path).
		Dur("tariff_ttl", a.cfg.Cache.TariffTTL).
		Dur("consumption_ttl", a.cfg.Cache.ConsumptionTTL).
		Msg("SQLite cache initialized")

	// Initialize Octopus API client
	a.client = octopus.NewClient(a.cfg.Octopus.BaseURL, a.cfg.Octopus.APIKey,
		a.cfg.Octopus.RateLimit, a.cfg.Octopus.Burst)

	// Wrap the API client with the read-through cache
	a.source = cache.NewSource(a.store, a.client, notifierAdapter, cache.Options{
		TariffTTL:      a.cfg.Cache.TariffTTL,
		ConsumptionTTL: a.cfg.Cache.ConsumptionTTL,
	})

	a.costLocation, err = time.LoadLocation(a.cfg.Costing.Timezone)
	if err != nil {
		a.store.Close()
		return fmt.Errorf("failed to load costing timezone: %w", err)
	}

	// Create rate limiters for health endpoints
	healthLimiter := rate.NewLimiter(10, 20)
	readyLimiter := rate.NewLimiter(10, 20)

	// Setup HTTP handlers
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", rateLimitMiddleware(healthLimiter, healthCheckHandler))
	mux.HandleFunc("/ready", rateLimitMiddleware(readyLimiter, func(w http.ResponseWriter, r *http.Request) {
		readinessCheckHandler(w, r, a.store)
	}))
	mux.HandleFunc("/api/rates", a.ratesHandler)
	mux.HandleFunc("/api/consumption", a.consumptionHandler)
	mux.HandleFunc("/api/gas-consumption", a.gasConsumptionHandler)
	mux.HandleFunc("/api/costs", a.costsHandler)
	mux.HandleFunc("/api/cheapest-slots", a.cheapestSlotsHandler)

	a.server = &http.Server{
		Addr:    "localhost:" + a.port,
		Handler: mux,
	}

	return nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run(configChan <-chan *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	a.ctx = ctx
	a.cancel = cancel
	defer a.cancel()

	a.configWatcher.Start(ctx)
	defer a.configWatcher.Stop()

	a.startHTTPServer()
	a.setupSignalHandler()
	a.startConfigWatcher(configChan)
	a.startRefreshLoops(ctx)

	// Warm the cache before settling into the refresh cadence
	a.refreshRates(ctx)
	a.refreshConsumption(ctx)

	<-ctx.Done()
	logger.Info().Msg("Shutting down")
	a.performCleanup()
}

// startHTTPServer starts the HTTP server for the API, metrics and health checks
func (a *App) startHTTPServer() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Info().Str("addr", a.server.Addr).Msg("Starting API and health check server (localhost only)")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()
}

// startRefreshLoops starts the background goroutines that keep the cache warm
func (a *App) startRefreshLoops(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.cfg.Refresh.RatesInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("Rates refresh goroutine shutting down")
				return
			case <-ticker.C:
				a.refreshRates(ctx)
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.cfg.Refresh.ConsumptionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("Consumption refresh goroutine shutting down")
				return
			case <-ticker.C:
				a.refreshConsumption(ctx)
			}
		}
	}()
}

// refreshRates fetches tariff rates through the cache, warming it for the
// window the dashboard cares about (today plus tomorrow's published rates).
func (a *App) refreshRates(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	start := time.Now()
	from := start.UTC().Truncate(24 * time.Hour)
	to := from.Add(48 * time.Hour)

	rates, stale, err := a.source.TariffRates(refreshCtx,
		a.cfg.Octopus.ProductCode, a.cfg.Octopus.TariffCode, from, to)
	metrics.RefreshDuration.WithLabelValues("tariff_rates").Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error().Err(err).Msg("Tariff rates refresh failed")
		return
	}

	metrics.CachedTariffRates.Set(float64(len(rates)))
	for _, r := range rates {
		if r.Covers(start) {
			metrics.CurrentUnitRate.Set(r.ValueIncVAT)
			break
		}
	}

	logger.Info().Int("rates", len(rates)).Bool("stale", stale).
		Time("from", from).Time("to", to).
		Msg("Tariff rates refreshed")
}

// refreshConsumption fetches recent electricity and gas consumption through
// the cache.
func (a *App) refreshConsumption(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	start := time.Now()
	to := start.UTC()
	from := to.AddDate(0, 0, -a.cfg.Refresh.HistoryDays)

	meter := octopus.Meter{
		PointID: a.cfg.Octopus.Electricity.PointID,
		Serial:  a.cfg.Octopus.Electricity.Serial,
	}
	readings, stale, err := a.source.Consumption(refreshCtx, meter, from, to)
	metrics.RefreshDuration.WithLabelValues("consumption").Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error().Err(err).Msg("Consumption refresh failed")
	} else {
		logger.Info().Int("readings", len(readings)).Bool("stale", stale).
			Msg("Electricity consumption refreshed")
	}

	if a.cfg.Octopus.Gas.PointID == "" {
		return
	}

	gasStart := time.Now()
	gasMeter := octopus.Meter{
		PointID: a.cfg.Octopus.Gas.PointID,
		Serial:  a.cfg.Octopus.Gas.Serial,
	}
	gasReadings, gasStale, err := a.source.GasConsumption(refreshCtx, gasMeter, from, to)
	metrics.RefreshDuration.WithLabelValues("gas_consumption").Observe(time.Since(gasStart).Seconds())
	if err != nil {
		logger.Error().Err(err).Msg("Gas consumption refresh failed")
		return
	}
	logger.Info().Int("readings", len(gasReadings)).Bool("stale", gasStale).
		Msg("Gas consumption refreshed")
}

// setupSignalHandler sets up graceful shutdown on interrupt signals
func (a *App) setupSignalHandler() {
	sigChan := make(chan os.Signal, signalChannelSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		a.performGracefulShutdown()
	}()
}

// DumpApplicationState dumps current application state to logs
func (a *App) DumpApplicationState() {
	logger.Info().Msg("=== APPLICATION STATE DUMP (SIGUSR1) ===")

	ctx, cancel := context.WithTimeout(context.Background(), readinessCheckTimeout)
	defer cancel()
	storeHealthy := a.store.Health(ctx) == nil
	logger.Info().
		Str("path", a.cfg.Cache.Path).
		Bool("healthy", storeHealthy).
		Msg("Cache store state")

	logger.Info().
		Str("product_code", a.cfg.Octopus.ProductCode).
		Str("tariff_code", a.cfg.Octopus.TariffCode).
		Str("mpan", a.cfg.Octopus.Electricity.PointID).
		Str("gas_mprn", a.cfg.Octopus.Gas.PointID).
		Msg("Meter configuration")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Info().
		Uint64("alloc_mb", m.Alloc/1024/1024).
		Uint64("total_alloc_mb", m.TotalAlloc/1024/1024).
		Uint32("num_gc", m.NumGC).
		Int("num_goroutines", runtime.NumGoroutine()).
		Msg("Runtime statistics")

	logger.Info().Msg("=== END STATE DUMP ===")
}

// DumpGoroutineStackTraces dumps all goroutine stack traces to logs
func DumpGoroutineStackTraces() {
	logger.Info().Msg("=== GOROUTINE STACK TRACES (SIGUSR2) ===")
	logger.Info().Int("num_goroutines", runtime.NumGoroutine()).Msg("Current goroutine count")

	buf := make([]byte, 1024*1024) // 1MB buffer
	stackLen := runtime.Stack(buf, true)
	logger.Info().Str("stack_traces", string(buf[:stackLen])).Msg("Full stack trace")

	logger.Info().Msg("=== END STACK TRACES ===")
}

// performGracefulShutdown handles graceful shutdown of all components
func (a *App) performGracefulShutdown() {
	logger.Info().Msg("Initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server stopped")
	}

	a.configWatcher.Stop()
	a.cancel()
}

// performCleanup closes the store and waits for goroutines to finish
func (a *App) performCleanup() {
	if err := a.store.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close cache store")
	} else {
		logger.Info().Msg("Cache store closed")
	}

	logger.Info().Msg("Waiting for goroutines to finish...")
	a.wg.Wait()
	logger.Info().Msg("All goroutines finished, exiting")
}

// UpdateConfig updates the application's configuration.
func (a *App) UpdateConfig(newCfg *config.Config) {
	a.cfg = newCfg
	logger.Info().Msg("Application configuration updated")

	// Reconfigure components that depend on dynamic config values
	a.notifier.UpdateWebhookURL(a.cfg.Notifications.SlackWebhookURL)
	logger.Info().Dur("rates_interval", a.cfg.Refresh.RatesInterval).
		Msg("Refresh intervals apply on next restart; notifier updated")
}

// startConfigWatcher starts a goroutine to listen for config file changes and reloads
func (a *App) startConfigWatcher(configChan <-chan *config.Config) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-a.ctx.Done():
				logger.Info().Msg("Config watcher goroutine shutting down")
				return
			case newCfg := <-configChan:
				a.UpdateConfig(newCfg)
			}
		}
	}()
}

// rateLimitMiddleware wraps an HTTP handler with rate limiting
func rateLimitMiddleware(limiter *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			logger.Warn().
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("Rate limit exceeded for health endpoint")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// healthCheckHandler handles health check requests
func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, writeErr := w.Write([]byte("OK")); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write health check response")
	}
}

// readinessCheckHandler handles readiness check requests
func readinessCheckHandler(w http.ResponseWriter, _ *http.Request, store interfaces.CacheStore) {
	ctx, cancel := context.WithTimeout(context.Background(), readinessCheckTimeout)
	defer cancel()

	if err := store.Health(ctx); err != nil {
		logger.Warn().Err(err).Msg("Readiness check failed: cache store unhealthy")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, writeErr := w.Write([]byte("NOT READY: cache store unhealthy")); writeErr != nil {
			logger.Error().Err(writeErr).Msg("Failed to write readiness check response")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, writeErr := w.Write([]byte("READY")); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write readiness check response")
	}
}

// queryWindow parses the from/to query parameters, defaulting to the last
// defaultDays days ending now.
func queryWindow(r *http.Request, defaultDays int) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -defaultDays)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(queryTimeFormat, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'from' parameter: %w", err)
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(queryTimeFormat, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'to' parameter: %w", err)
		}
		to = parsed
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("'from' must be before 'to'")
	}

	return from, to, nil
}

// ratesHandler serves tariff rates for a time window
func (a *App) ratesHandler(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryWindow(r, 1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rates, stale, err := a.source.TariffRates(ctx,
		a.cfg.Octopus.ProductCode, a.cfg.Octopus.TariffCode, from, to)
	if err != nil {
		logger.Error().Err(err).Msg("Rates request failed")
		http.Error(w, "failed to fetch tariff rates", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]any{
		"rates": rates,
		"stale": stale,
	})
}

// consumptionHandler serves electricity consumption for a time window
func (a *App) consumptionHandler(w http.ResponseWriter, r *http.Request) {
	meter := octopus.Meter{
		PointID: a.cfg.Octopus.Electricity.PointID,
		Serial:  a.cfg.Octopus.Electricity.Serial,
	}
	a.serveConsumption(w, r, meter, a.source.Consumption)
}

// gasConsumptionHandler serves gas consumption for a time window
func (a *App) gasConsumptionHandler(w http.ResponseWriter, r *http.Request) {
	if a.cfg.Octopus.Gas.PointID == "" {
		http.Error(w, "no gas meter configured", http.StatusNotFound)
		return
	}
	meter := octopus.Meter{
		PointID: a.cfg.Octopus.Gas.PointID,
		Serial:  a.cfg.Octopus.Gas.Serial,
	}
	a.serveConsumption(w, r, meter, a.source.GasConsumption)
}

func (a *App) serveConsumption(w http.ResponseWriter, r *http.Request, meter octopus.Meter,
	fetch func(context.Context, octopus.Meter, time.Time, time.Time) ([]octopus.ConsumptionReading, bool, error)) {
	from, to, err := queryWindow(r, a.cfg.Refresh.HistoryDays)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	readings, stale, err := fetch(ctx, meter, from, to)
	if err != nil {
		logger.Error().Err(err).Msg("Consumption request failed")
		http.Error(w, "failed to fetch consumption", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]any{
		"readings": readings,
		"stale":    stale,
	})
}

// costsHandler prices consumption against tariff rates for a time window
func (a *App) costsHandler(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryWindow(r, a.cfg.Refresh.HistoryDays)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	meter := octopus.Meter{
		PointID: a.cfg.Octopus.Electricity.PointID,
		Serial:  a.cfg.Octopus.Electricity.Serial,
	}
	readings, readingsStale, err := a.source.Consumption(ctx, meter, from, to)
	if err != nil {
		logger.Error().Err(err).Msg("Costs request failed fetching consumption")
		http.Error(w, "failed to fetch consumption", http.StatusBadGateway)
		return
	}

	rates, ratesStale, err := a.source.TariffRates(ctx,
		a.cfg.Octopus.ProductCode, a.cfg.Octopus.TariffCode, from, to)
	if err != nil {
		logger.Error().Err(err).Msg("Costs request failed fetching rates")
		http.Error(w, "failed to fetch tariff rates", http.StatusBadGateway)
		return
	}

	summary := costing.CalculateCosts(readings, rates, a.cfg.Costing.StandingCharge, a.costLocation)

	writeJSON(w, map[string]any{
		"summary": summary,
		"stale":   readingsStale || ratesStale,
	})
}

// cheapestSlotsHandler serves the lowest-priced half-hour slots for today
func (a *App) cheapestSlotsHandler(w http.ResponseWriter, r *http.Request) {
	count := defaultCheapestSlots
	if v := r.URL.Query().Get("count"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid 'count' parameter", http.StatusBadRequest)
			return
		}
		count = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	now := time.Now()
	day := now.In(a.costLocation)
	from := now.UTC().Truncate(24 * time.Hour)
	to := from.Add(48 * time.Hour)

	rates, stale, err := a.source.TariffRates(ctx,
		a.cfg.Octopus.ProductCode, a.cfg.Octopus.TariffCode, from, to)
	if err != nil {
		logger.Error().Err(err).Msg("Cheapest slots request failed")
		http.Error(w, "failed to fetch tariff rates", http.StatusBadGateway)
		return
	}

	slots := costing.CheapestSlots(rates, count, day, a.costLocation)

	writeJSON(w, map[string]any{
		"slots": slots,
		"stale": stale,
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// performHealthCheck performs a health check and returns exit code
func performHealthCheck(configPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: could not load config: %v\n", err)
		return 1
	}

	store, err := storage.Open(cfg.Cache.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: could not open cache store: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: cache store is unhealthy: %v\n", err)
		return 1
	}

	fmt.Println("Health check passed: cache store is healthy")
	return 0
}

// performConfigValidation validates the configuration file and returns exit code
func performConfigValidation(configPath string) int {
	logger.Initialize("info")
	logger.Info().Str("path", configPath).Msg("Validating configuration file")

	if err := config.ValidateWithSchema(configPath); err != nil {
		logger.Error().Err(err).Msg("Configuration schema validation failed")
		fmt.Fprintf(os.Stderr, "\n❌ Configuration validation FAILED\n")
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Configuration validation failed")
		fmt.Fprintf(os.Stderr, "\n❌ Configuration validation FAILED\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		return 1
	}

	fmt.Println("\n✅ Configuration validation PASSED")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  API Base URL: %s\n", cfg.Octopus.BaseURL)
	fmt.Printf("  Product Code: %s\n", cfg.Octopus.ProductCode)
	fmt.Printf("  Tariff Code: %s\n", cfg.Octopus.TariffCode)
	fmt.Printf("  Electricity MPAN: %s\n", cfg.Octopus.Electricity.PointID)
	if cfg.Octopus.Gas.PointID != "" {
		fmt.Printf("  Gas MPRN: %s\n", cfg.Octopus.Gas.PointID)
	} else {
		fmt.Println("  Gas Meter: not configured")
	}
	fmt.Printf("  Cache Path: %s\n", cfg.Cache.Path)
	fmt.Printf("  Tariff TTL: %s\n", cfg.Cache.TariffTTL)
	fmt.Printf("  Consumption TTL: %s\n", cfg.Cache.ConsumptionTTL)
	fmt.Printf("  Rates Refresh Interval: %s\n", cfg.Refresh.RatesInterval)
	fmt.Printf("  Consumption Refresh Interval: %s\n", cfg.Refresh.ConsumptionInterval)
	fmt.Printf("  History Days: %d\n", cfg.Refresh.HistoryDays)
	fmt.Printf("  Standing Charge: £%.4f/day\n", cfg.Costing.StandingCharge)
	fmt.Printf("  Log Level: %s\n", cfg.Logging.Level)

	if cfg.Notifications.SlackWebhookURL != "" {
		fmt.Println("  Slack Notifications: Enabled")
	} else {
		fmt.Println("  Slack Notifications: Disabled")
	}

	fmt.Println("\nAll validation checks passed. Configuration is ready for use.")
	return 0
}
