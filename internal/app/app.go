package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jobscout/internal/catalog"
	"github.com/MrSnakeDoc/jobscout/internal/config"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/metrics"
	"github.com/MrSnakeDoc/jobscout/internal/postgres"
	"github.com/MrSnakeDoc/jobscout/internal/provider"
	"github.com/MrSnakeDoc/jobscout/internal/redis"
	"github.com/MrSnakeDoc/jobscout/internal/resume"
	"github.com/MrSnakeDoc/jobscout/internal/scheduler"
	"github.com/MrSnakeDoc/jobscout/internal/search"
	"github.com/MrSnakeDoc/jobscout/internal/store"
	pgstore "github.com/MrSnakeDoc/jobscout/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/jobscout/internal/store/redis"
	"github.com/MrSnakeDoc/jobscout/internal/utils"
	"github.com/MrSnakeDoc/jobscout/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	pgPool      *pgxpool.Pool
	reloader    *scheduler.RankingReloader
	janitor     *scheduler.SavedJanitor // nil with the postgres backend
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", redisTarget(cfg))
	redisClient, err := redis.New(redis.ConnectOptions{
		URL:            cfg.RedisURL,
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	redisStore := redisstore.NewStore(redisClient)

	// Saved jobs backend
	var (
		saved   store.SavedJobs = redisStore
		pgPool  *pgxpool.Pool
		janitor *scheduler.SavedJanitor
	)
	switch cfg.StoreBackend {
	case config.StorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisConnectTimeout)
		pgPool, err = postgres.NewPool(ctx, cfg.DatabaseURL, loggerClient)
		if err == nil {
			err = postgres.Migrate(ctx, pgPool)
		}
		cancel()
		if err != nil {
			loggerClient.Errorf("Failed to initialize PostgreSQL: %v", err)
			os.Exit(1)
		}
		saved = pgstore.NewStore(pgPool)
		loggerClient.Info("saved jobs stored in PostgreSQL")
	default:
		janitor = scheduler.NewSavedJanitor(redisStore, loggerClient, cfg.JanitorInterval)
		loggerClient.Info("saved jobs stored in Redis")
	}

	registry := metrics.NewRegistry()
	m := metrics.New(registry)

	cat := catalog.NewMemory()

	// Listing providers, each with its own quota
	providers := []provider.Provider{
		provider.NewSerpAPI(provider.SerpAPIOptions{
			APIKey:         cfg.SerpAPIKey,
			BaseURL:        cfg.SerpAPIBaseURL,
			Pages:          cfg.SerpAPIPages,
			RemoteLocation: cfg.SerpAPIRemoteLocation,
			Country:        cfg.SerpAPICountry,
			Language:       cfg.SerpAPILanguage,
			Limiter:        provider.NewLimiter(cfg.ProviderRatePerS, cfg.ProviderRateBurst),
		}, loggerClient),
		provider.NewAdzuna(provider.AdzunaOptions{
			AppID:   cfg.AdzunaAppID,
			AppKey:  cfg.AdzunaAppKey,
			Country: cfg.AdzunaCountry,
			BaseURL: cfg.AdzunaBaseURL,
			Pages:   cfg.AdzunaPages,
			Limiter: provider.NewLimiter(cfg.ProviderRatePerS, cfg.ProviderRateBurst),
		}, loggerClient),
	}

	var extractor resume.Extractor = resume.NewKeywordExtractor(func() []string { return cat.Catalog().Roles }, nil)
	if cfg.OpenAIKey != "" {
		loggerClient.Info("resume extraction uses OpenAI", logger.String("model", cfg.OpenAIModel))
		extractor = resume.NewOpenAIExtractor(resume.NewOpenAIClient(cfg.OpenAIKey), cfg.OpenAIModel, extractor, loggerClient)
	}

	aggregator := search.New(search.Options{
		Providers: providers,
		Extractor: extractor,
		Catalog:   cat,
		Cache:     redisStore,
		CacheTTL:  cfg.SearchCacheTTL,
		Metrics:   m,
		// Shared provider rounds get the same budget as a request
		FetchTimeout: cfg.RequestTimeout,
	}, loggerClient)
	if len(aggregator.Providers()) == 0 {
		loggerClient.Warn("no listing provider configured, every search will fail until credentials are set")
	}

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewRankingReloader(scheduler.RankingReloaderOptions{
		File:          cfg.RankingFile,
		Schedule:      cfg.ReloadSchedule,
		Watch:         cfg.WatchRankingFile,
		ManualTrigger: reloadTrigger,
	}, cat, m, loggerClient)

	var cache deps.CacheFlusher
	if cfg.SearchCacheTTL > 0 {
		cache = redisStore
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		AllowedOrigins:  cfg.AllowedOrigins,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		StoreBackend:    cfg.StoreBackend,
		Searcher:        aggregator,
		Saved:           saved,
		Catalog:         cat,
		Cache:           cache,
		Metrics:         m,
		Gatherer:        registry,
		ReloadTrigger:   reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		pgPool:      pgPool,
		reloader:    reloader,
		janitor:     janitor,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting JobScout v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("JobScout %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the ranking table and start listening for reloads
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start ranking reloader: %w", err)
	}
	a.logger.Info("ranking reloader started",
		logger.String("file", a.cfg.RankingFile),
		logger.String("schedule", a.cfg.ReloadSchedule))

	if a.janitor != nil {
		if err := a.janitor.Start(ctx); err != nil {
			return fmt.Errorf("failed to start saved janitor: %w", err)
		}
		a.logger.Info("saved janitor started",
			logger.Duration("interval", a.cfg.JanitorInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	if a.janitor != nil {
		a.janitor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.pgPool != nil {
		a.pgPool.Close()
		a.logger.Info("✅ PostgreSQL pool closed")
	}
	utils.MustClose(a.redisClient, "redis", a.logger)

	a.logger.Info("✅ JobScout stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

// redisTarget names the Redis endpoint without leaking URL credentials.
func redisTarget(cfg *config.Config) string {
	if cfg.RedisURL != "" {
		return "(url)"
	}
	return cfg.RedisAddr
}
