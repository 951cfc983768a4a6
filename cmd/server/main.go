// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"caredex/internal/attestation"
	"caredex/internal/attestation/device"
	attmetrics "caredex/internal/attestation/metrics"
	attservice "caredex/internal/attestation/service"
	attstore "caredex/internal/attestation/store"
	"caredex/internal/audit"
	"caredex/internal/directory"
	dirmetrics "caredex/internal/directory/metrics"
	dirservice "caredex/internal/directory/service"
	dirstore "caredex/internal/directory/store"
	httpapi "caredex/internal/http"
	"caredex/internal/platform/config"
	"caredex/internal/platform/httpserver"
	"caredex/internal/platform/logger"
	"caredex/internal/platform/metrics"
	platformredis "caredex/internal/platform/redis"
	"caredex/internal/platform/token"
	"caredex/internal/ratelimit"
	"caredex/internal/registry"
	"caredex/internal/reverify"
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	stores, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	auditPublisher := buildAuditPublisher(ctx, cfg, log)
	defer auditPublisher.Close()

	directorySvc := directory.NewService(stores.providers, stores.plans, stores.acceptances,
		dirservice.WithLogger(log),
		dirservice.WithMetrics(dirmetrics.New()),
	)
	attestationSvc := attestation.NewService(stores.submissions, stores.acceptances,
		stores.providers, stores.plans,
		device.NewService(cfg.FingerprintingEnabled),
		attservice.WithLogger(log),
		attservice.WithMetrics(attmetrics.New()),
		attservice.WithAudit(auditPublisher),
		attservice.WithDedupeWindow(cfg.DedupeWindow),
	)

	tokens := token.NewService(cfg.AdminSigningKey, "caredex")
	limiter := ratelimit.New(cfg.RateLimit, cfg.RateLimitWindow,
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(ratelimit.NewMetrics()),
	)

	router := httpapi.New(httpapi.Deps{
		Directory:   directory.NewHandler(directorySvc, log),
		Attestation: attestation.NewHandler(attestationSvc, log),
		Tokens:      tokens,
		RateLimit:   limiter,
		Logger:      log,
		HTTPMetrics: metrics.NewHTTP(),
	})

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting caredex", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	sweeper := reverify.NewSweeper(stores.acceptances, cfg.ReverifyInterval, cfg.BaselineDays,
		reverify.WithLogger(log),
		reverify.WithMetrics(reverify.NewMetrics()),
	)
	group.Go(func() error {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if cfg.RegistrySyncEnabled {
		sync := buildRegistrySync(ctx, cfg, log, stores.providers)
		group.Go(func() error {
			runRegistrySync(ctx, sync, cfg.RegistrySyncInterval, log)
			return nil
		})
	}

	return group.Wait()
}

// storeSet holds whichever persistence backend the configuration selected.
type storeSet struct {
	providers   dirservice.ProviderStore
	plans       dirservice.PlanStore
	acceptances dirservice.AcceptanceStore
	submissions attservice.SubmissionStore
}

func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*storeSet, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("no database configured, using in-memory stores")
		acceptances := dirstore.NewInMemoryAcceptances()
		return &storeSet{
			providers:   dirstore.NewInMemoryProviders(acceptances),
			plans:       dirstore.NewInMemoryPlans(),
			acceptances: acceptances,
			submissions: attstore.NewInMemorySubmissions(),
		}, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := dirstore.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := attstore.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	log.Info("connected to postgres")
	return &storeSet{
		providers:   dirstore.NewPostgresProviders(pool),
		plans:       dirstore.NewPostgresPlans(pool),
		acceptances: dirstore.NewPostgresAcceptances(pool),
		submissions: attstore.NewPostgresSubmissions(pool),
	}, pool.Close, nil
}

func buildAuditPublisher(ctx context.Context, cfg config.Config, log *slog.Logger) audit.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewLogPublisher(log)
	}
	publisher, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
	if err != nil {
		log.Warn("kafka unavailable, falling back to log audit", "error", err)
		return audit.NewLogPublisher(log)
	}
	return publisher
}

func buildRegistrySync(ctx context.Context, cfg config.Config, log *slog.Logger, providers registry.ProviderStore) *registry.Service {
	var client registry.Client
	if cfg.RegistryURL != "" {
		client = registry.NewHTTPClient(cfg.RegistryURL)
	} else {
		log.Info("no registry URL configured, using mock registry client")
		client = registry.MockClient{}
	}

	var cache registry.Cache
	if redisClient, err := platformredis.New(ctx, cfg.RedisURL); err != nil {
		log.Warn("redis unavailable, using in-process registry cache", "error", err)
		cache = registry.NewMemoryCache(cfg.RegistryCacheTTL)
	} else if redisClient != nil {
		cache = registry.NewRedisCache(redisClient.Client, cfg.RegistryCacheTTL)
	} else {
		cache = registry.NewMemoryCache(cfg.RegistryCacheTTL)
	}

	return registry.NewService(client, cache, providers,
		registry.WithLogger(log),
		registry.WithMetrics(registry.NewMetrics()),
	)
}

func runRegistrySync(ctx context.Context, sync *registry.Service, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	refresh := func() {
		count, err := sync.RefreshAll(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("registry sync failed", "error", err)
			return
		}
		log.Info("registry sync completed", "providers", count)
	}

	refresh()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
