package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"stellarelay/internal/admin"
	"stellarelay/internal/config"
	"stellarelay/internal/constants"
	"stellarelay/internal/delivery"
	"stellarelay/internal/dispatch"
	"stellarelay/internal/filtering"
	"stellarelay/internal/journal"
	"stellarelay/internal/logger"
	"stellarelay/internal/lookup"
	"stellarelay/internal/payloadlog"
	"stellarelay/internal/settings"
	"stellarelay/pkg/bootstrap"
	"stellarelay/pkg/health"
	"stellarelay/pkg/metrics"
	"stellarelay/pkg/middleware"
	"stellarelay/pkg/ratelimit"
)

type App struct {
	*bootstrap.Base
	cacheConnector *bootstrap.CacheConnector
	redisClient    *redis.Client

	store      *settings.Store
	payloadLog *payloadlog.Logger
	deliverer  *delivery.Client
	dispatcher *dispatch.Dispatcher
	watcher    *journal.Watcher
	server     *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("relay-service")
	}
	return &App{
		Base:           bootstrap.NewBase(cfg, log),
		cacheConnector: bootstrap.NewCacheConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	store, err := settings.NewStore(a.Config.Settings.File)
	if err != nil {
		return fmt.Errorf("failed to initialize settings store: %w", err)
	}
	a.store = store

	redisClient, err := a.cacheConnector.InitRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.redisClient = redisClient

	a.payloadLog = payloadlog.New(a.Config.PayloadLog)

	if err := a.initPipeline(ctx); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	metrics.RegisterRelayMetrics()
	metrics.RegisterLookupMetrics()
	if a.Config.Lookup.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}
	if a.Config.Server.RateLimit.Enabled {
		metrics.RegisterRateLimitMetrics()
	}

	if err := a.initHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initPipeline(ctx context.Context) error {
	ttl := time.Duration(a.Config.Lookup.Cache.TTLSeconds) * time.Second

	var cache lookup.Cache
	if a.redisClient != nil {
		cache = lookup.NewRedisCache(a.redisClient, ttl)
	} else {
		cache = lookup.NewMemoryCache(ttl)
	}

	lookupClient := lookup.NewClient(a.Config.Lookup, a.Logger)
	resolver := lookup.NewService(lookupClient, cache, a.store, a.Logger)

	filter, err := filtering.NewService(a.Config.Filtering, a.Logger)
	if err != nil {
		return err
	}

	a.deliverer = delivery.NewClient(a.Config.Delivery, a.payloadLog, a.Logger)
	a.dispatcher = dispatch.NewDispatcher(a.deliverer, resolver, filter, a.store, a.payloadLog, a.Logger)

	watcher, err := journal.NewWatcher(a.Config.Journal, a.Logger)
	if err != nil {
		return err
	}
	a.watcher = watcher
	return nil
}

func (a *App) initHTTPServer(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RecoveryMiddleware(a.Logger))

	if a.Config.Server.RateLimit.Enabled {
		rlConfig := ratelimit.DefaultConfig()
		if a.Config.Server.RateLimit.RPS > 0 {
			rlConfig.RPS = a.Config.Server.RateLimit.RPS
		}
		if a.Config.Server.RateLimit.Burst > 0 {
			rlConfig.Burst = a.Config.Server.RateLimit.Burst
		}
		if a.Config.Server.RateLimit.CleanupInterval > 0 {
			rlConfig.CleanupInterval = time.Duration(a.Config.Server.RateLimit.CleanupInterval) * time.Second
		}
		if a.Config.Server.RateLimit.MaxAge > 0 {
			rlConfig.MaxAge = time.Duration(a.Config.Server.RateLimit.MaxAge) * time.Second
		}
		router.Use(ratelimit.Middleware(rlConfig))
	}

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewJournalDirChecker(a.Config.Journal.Dir))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	handler := admin.NewHandler(a.store, healthRegistry, a.Logger)
	handler.RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "Admin API starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.Logger.InfowCtx(gCtx, "Journal watcher starting", "dir", a.Config.Journal.Dir)
		return a.watcher.Run(gCtx)
	})

	g.Go(func() error {
		return a.dispatcher.Run(gCtx, a.watcher.Events())
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx, a.shutdownComponents)
	})

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (a *App) shutdownComponents(ctx context.Context) []error {
	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
		}
	}

	if a.deliverer != nil {
		if err := a.deliverer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("delivery drain error: %w", err))
		}
	}

	if a.payloadLog != nil {
		if err := a.payloadLog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("payload log close error: %w", err))
		}
	}

	errs = append(errs, a.cacheConnector.ShutdownCache(a.redisClient)...)

	return errs
}
