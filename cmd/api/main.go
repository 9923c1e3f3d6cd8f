package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"property-browser/internal/browser"
	"property-browser/internal/cache"
	"property-browser/internal/config"
	"property-browser/internal/database"
	"property-browser/internal/handlers"
	"property-browser/internal/ingest"
	"property-browser/internal/logger"
	"property-browser/internal/metrics"
	"property-browser/internal/provider"
	"property-browser/internal/ratelimit"
	"property-browser/internal/refresh"
	"property-browser/internal/scheduler"
	"property-browser/internal/search"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	configPath := getEnv("CONFIG_PATH", "/app/config/config.yaml")
	appConfig, cfgErr := config.LoadConfig(configPath)
	if cfgErr != nil {
		appConfig = config.DefaultConfig()
	}

	log, err := logger.New(
		getEnvOrConfig(appConfig.Logging.Level, "LOG_LEVEL", "info"),
		getEnvOrConfig(appConfig.Logging.Format, "LOG_FORMAT", "console"),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if cfgErr != nil {
		log.Warn("Failed to load config, using defaults", zap.String("path", configPath), zap.Error(cfgErr))
	} else {
		log.Info("Loaded configuration", zap.String("path", configPath))
	}

	store, err := openStore(appConfig, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	resultCache := newCache(appConfig, log)

	port := getEnvOrConfig(appConfig.Server.Port, "PORT", "8084")
	refresher := newRefresher(appConfig, port, log)

	b := browser.New(browser.Config{
		StaleTime:      appConfig.Cache.StaleTime(),
		RefreshTimeout: appConfig.Refresh.GetTimeout(),
		QueryTimeout:   appConfig.Browser.GetQueryTimeout(),
		SampleFallback: appConfig.Browser.SampleFallback,
	}, store, refresher, resultCache, m, log.Named("browser"))

	// Provider side: rate limited Realtor client feeding ingestion.
	rateLimiter := ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)
	log.Info("Rate limiter initialized",
		zap.Int("per_minute", appConfig.RateLimit.RequestsPerMinute),
		zap.Int("per_hour", appConfig.RateLimit.RequestsPerHour),
		zap.Int("per_day", appConfig.RateLimit.RequestsPerDay),
		zap.Bool("enabled", appConfig.RateLimit.Enabled),
	)

	realtor := provider.NewRealtorClient(provider.Config{
		BaseURL:  appConfig.Provider.BaseURL,
		APIKey:   getEnvOrConfig(appConfig.Provider.RapidAPIKey, "RAPIDAPI_KEY", ""),
		Host:     appConfig.Provider.RapidAPIHost,
		Timeout:  appConfig.Provider.GetTimeout(),
		PageSize: appConfig.Provider.PageSize,
	}, rateLimiter, log.Named("provider"))

	// Keep these as interface values so a disabled search stays a true nil.
	var (
		searcher handlers.Searcher
		indexer  ingest.Indexer
	)
	if appConfig.Search.Meilisearch.Enabled {
		client := search.NewSearchClient(
			getEnvOrConfig(appConfig.Search.Meilisearch.Host, "MEILISEARCH_HOST", "http://meilisearch:7700"),
			getEnvOrConfig(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", ""),
		)
		if err := client.InitIndex(); err != nil {
			log.Warn("Failed to initialize search index", zap.Error(err))
		}
		searcher, indexer = client, client
	}

	ingestService := ingest.NewService(realtor, store, indexer, m, log.Named("ingest"))

	sched := scheduler.NewScheduler(ingestService, scheduler.Config{
		Enabled: appConfig.Scheduler.Enabled,
		Spec:    appConfig.Scheduler.Cron,
		Cities:  appConfig.Scheduler.Cities,
	}, log.Named("scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	router := handlers.NewRouter(handlers.RouterConfig{
		Properties:     handlers.NewPropertyHandler(b, store, searcher, log.Named("http")),
		Ingest:         handlers.NewIngestHandler(ingestService, sched, realtor, log.Named("http")),
		Gatherer:       reg,
		AllowedOrigins: appConfig.Server.AllowedOrigins,
		Logger:         log.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}

// openStore connects to the configured database and makes sure the schema
// exists.
func openStore(cfg *config.Config, log *zap.Logger) (database.Store, error) {
	dbType := getEnvOrConfig(cfg.Database.Type, "DB_TYPE", "postgres")

	if dbType == "mysql" {
		log.Info("Using MySQL with GORM")
		mysqlCfg := cfg.Database.MySQL

		gormDB, err := database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portString(mysqlCfg.Port), "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "property_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "property_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "property_db"),
		)
		if err != nil {
			return nil, fmt.Errorf("connect to mysql: %w", err)
		}
		if err := gormDB.InitSchema(); err != nil {
			gormDB.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		return gormDB, nil
	}

	log.Info("Using PostgreSQL")
	pgCfg := cfg.Database.Postgres

	db, err := database.NewDB(
		getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
		getEnvOrConfig(portString(pgCfg.Port), "DB_PORT", "5432"),
		getEnvOrConfig(pgCfg.User, "DB_USER", "property_user"),
		getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "property_pass"),
		getEnvOrConfig(pgCfg.Database, "DB_NAME", "property_db"),
		getEnvOrConfig(pgCfg.SSLMode, "DB_SSLMODE", "disable"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return db, nil
}

func newCache(cfg *config.Config, log *zap.Logger) cache.Cache {
	retention := cfg.Cache.CacheTime()

	if getEnvOrConfig(cfg.Cache.Backend, "CACHE_BACKEND", "memory") != "redis" {
		return cache.NewMemory(retention)
	}

	addr := getEnvOrConfig(cfg.Cache.RedisAddr, "REDIS_ADDR", "redis:6379")
	client := cache.NewRedisClient(addr, getEnvOrConfig(cfg.Cache.RedisPassword, "REDIS_PASSWORD", ""), cfg.Cache.RedisDB)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not reachable, falling back to in-memory cache", zap.String("addr", addr), zap.Error(err))
		client.Close()
		return cache.NewMemory(retention)
	}

	log.Info("Using Redis result cache", zap.String("addr", addr))
	return cache.NewRedis(client, retention)
}

// newRefresher returns nil when refresh is disabled or misconfigured; the
// browser then queries the store directly.
func newRefresher(cfg *config.Config, port string, log *zap.Logger) refresh.Refresher {
	if !cfg.Refresh.Enabled {
		log.Info("Refresh disabled")
		return nil
	}

	// Without an explicit endpoint the refresh goes to this server's own
	// fetch-properties route.
	baseURL := getEnvOrConfig(cfg.Refresh.BaseURL, "REFRESH_BASE_URL", "http://localhost:"+port)

	client, err := refresh.NewClient(refresh.Config{
		BaseURL: baseURL,
		Path:    cfg.Refresh.Path,
		AnonKey: getEnvOrConfig(cfg.Refresh.AnonKey, "REFRESH_ANON_KEY", ""),
		Timeout: cfg.Refresh.GetTimeout(),
		Breaker: refresh.NewCircuitBreaker(
			cfg.Refresh.BreakerFailureThreshold,
			cfg.Refresh.GetBreakerReset(),
			log.Named("refresh"),
		),
	}, log.Named("refresh"))
	if err != nil {
		log.Warn("Refresh disabled", zap.Error(err))
		return nil
	}
	return client
}

func portString(port int) string {
	if port <= 0 {
		return ""
	}
	return strconv.Itoa(port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns the config value if set, otherwise the environment
// variable, otherwise the default.
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
