package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"

	"github.com/searchforge/suggestions/internal/api"
	"github.com/searchforge/suggestions/internal/cache"
	"github.com/searchforge/suggestions/internal/controller"
	"github.com/searchforge/suggestions/obs"
	"github.com/searchforge/suggestions/policy"
	"github.com/searchforge/suggestions/sources"
	"github.com/searchforge/suggestions/taxonomy"
)

const (
	defaultPort      = 7070
	defaultBudgetMs  = 600
	defaultTimeoutMs = 400
)

func main() {
	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("suggestions server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	shutdown, err := obs.InitTracer("suggestions", cfg.TraceSampleRatio)
	if err != nil {
		logger.Warn("tracer disabled", "err", err)
	}
	defer func() {
		if shutdown == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown", "err", err)
		}
	}()

	index, err := loadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	guarded, err := sources.NewGuarded(store, guardConfig(cfg))
	if err != nil {
		return fmt.Errorf("guarded store: %w", err)
	}

	cacheStore, closeCache, err := openCacheStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	ctrl, err := controller.New(controller.Config{
		Index:  index,
		Store:  guarded,
		Cache:  cache.New(cacheStore, cache.Policy{Env: cfg.Env}, logger),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	router, err := api.NewRouter(ctrl, cfg.Budget, logger)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	router.Handle("/metrics", promhttp.Handler())

	root := chi.NewRouter()
	root.Mount("/", router)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(cfg.WarmQueries) > 0 {
		go func() {
			if _, err := ctrl.Warm(ctx, cfg.WarmQueries, controller.DefaultWarmWorkers); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("cache warm-up incomplete", "err", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("suggestions server listening", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "cache", cfg.CacheBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadTaxonomy(path string) (*taxonomy.Index, error) {
	var (
		ds  taxonomy.Dataset
		err error
	)
	if path == "" {
		ds, err = taxonomy.Default()
	} else {
		ds, err = taxonomy.LoadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	return taxonomy.NewIndex(ds), nil
}

func openStore(cfg config, logger *slog.Logger) (sources.ItemStore, func(), error) {
	var seed []sources.Item
	if cfg.ItemsPath != "" {
		items, err := sources.LoadItemsFile(cfg.ItemsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("items: %w", err)
		}
		seed = items
	}

	if cfg.StoreDriver == "memory" {
		logger.Info("using in-memory item store", "items", len(seed))
		return sources.NewMemoryStore(seed...), func() {}, nil
	}

	store, err := sources.OpenSQL(cfg.StoreDriver, cfg.StoreDSN, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close item store", "err", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	if len(seed) > 0 {
		if err := store.Upsert(ctx, seed...); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("seed items: %w", err)
		}
	}
	return store, closeFn, nil
}

func openCacheStore(cfg config, logger *slog.Logger) (cache.Store, func(), error) {
	switch cfg.CacheBackend {
	case "badger":
		store, err := cache.OpenBadgerStore(cfg.CacheDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close cache", "err", err)
			}
		}, nil
	default:
		store, err := cache.NewLRUStore(cfg.CacheSize)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func guardConfig(cfg config) sources.GuardedConfig {
	breaker := policy.BreakerConfig{
		Window:       cfg.CircuitWindow,
		FailureRatio: cfg.CircuitThreshold,
		MinRequests:  cfg.CircuitMinSamples,
		Cooldown:     cfg.CircuitCooldown,
		Probes:       cfg.CircuitProbes,
	}
	guard := policy.GuardConfig{
		Timeout: cfg.StoreTimeout,
		Rate:    policy.RateConfig{PerSecond: cfg.StoreRate},
		Breaker: breaker,
	}
	return sources.GuardedConfig{Search: guard, Usage: guard, Ping: guard}
}

type config struct {
	Port              int
	Env               cache.Env
	Budget            time.Duration
	TaxonomyPath      string
	StoreDriver       string
	StoreDSN          string
	ItemsPath         string
	StoreTimeout      time.Duration
	StoreRate         float64
	CircuitWindow     time.Duration
	CircuitThreshold  float64
	CircuitMinSamples int
	CircuitCooldown   time.Duration
	CircuitProbes     int
	CacheBackend      string
	CacheSize         int
	CacheDir          string
	WarmQueries       []string
	LogLevel          string
	TraceSampleRatio  float64
}

func loadConfig() config {
	return config{
		Port:              getEnvInt("PORT", defaultPort),
		Env:               cache.ParseEnv(getEnvStr("APP_ENV", "production")),
		Budget:            time.Duration(getEnvInt("REQUEST_BUDGET_MS", defaultBudgetMs)) * time.Millisecond,
		TaxonomyPath:      getEnvStr("TAXONOMY_PATH", ""),
		StoreDriver:       getEnvStr("STORE_DRIVER", "sqlite"),
		StoreDSN:          getEnvStr("STORE_DSN", "file:suggestions.db"),
		ItemsPath:         getEnvStr("ITEMS_PATH", ""),
		StoreTimeout:      time.Duration(getEnvInt("STORE_TIMEOUT_MS", defaultTimeoutMs)) * time.Millisecond,
		StoreRate:         getEnvFloat("STORE_RATE_PER_SEC", 0),
		CircuitWindow:     time.Duration(getEnvInt("CIRCUIT_WINDOW_MS", 30000)) * time.Millisecond,
		CircuitThreshold:  getEnvFloat("CIRCUIT_THRESHOLD", 0.5),
		CircuitMinSamples: getEnvInt("CIRCUIT_MIN_SAMPLES", 5),
		CircuitCooldown:   time.Duration(getEnvInt("CIRCUIT_COOLDOWN_MS", 5000)) * time.Millisecond,
		CircuitProbes:     getEnvInt("CIRCUIT_HALF_OPEN_MAX", 1),
		CacheBackend:      getEnvStr("CACHE_BACKEND", "lru"),
		CacheSize:         getEnvInt("CACHE_SIZE", cache.DefaultLRUSize),
		CacheDir:          getEnvStr("CACHE_DIR", ""),
		WarmQueries:       splitList(getEnvStr("WARM_QUERIES", "")),
		LogLevel:          getEnvStr("LOG_LEVEL", "info"),
		TraceSampleRatio:  getEnvFloat("TRACE_SAMPLE_RATIO", 0.1),
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvStr(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
