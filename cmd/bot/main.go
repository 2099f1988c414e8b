package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/arctis-labs/lumen-bot/internal/bot"
	"github.com/arctis-labs/lumen-bot/internal/engine"
	apperrors "github.com/arctis-labs/lumen-bot/internal/errors"
	"github.com/arctis-labs/lumen-bot/internal/health"
	"github.com/arctis-labs/lumen-bot/internal/idempotency"
	"github.com/arctis-labs/lumen-bot/internal/jobs"
	"github.com/arctis-labs/lumen-bot/internal/lifecycle"
	"github.com/arctis-labs/lumen-bot/internal/middleware"
	"github.com/arctis-labs/lumen-bot/internal/orchestrator"
	"github.com/arctis-labs/lumen-bot/internal/ratelimit"
	"github.com/arctis-labs/lumen-bot/internal/session"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
	"github.com/arctis-labs/lumen-bot/pkg/config"
	"github.com/arctis-labs/lumen-bot/pkg/graceful"
	"github.com/arctis-labs/lumen-bot/pkg/logger"
	"github.com/arctis-labs/lumen-bot/pkg/metrics"
	appredis "github.com/arctis-labs/lumen-bot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:         cfg.Log.Level,
		FilePath:      cfg.Log.File,
		SentryEnabled: cfg.Sentry.Enabled,
	})
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	log.Info("starting lumen bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("session_backend", cfg.Session.Backend),
	)

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log)

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		client, err := appredis.Connect(ctx, appredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		redisClient = client
		shutdown.Register("redis", func(context.Context) error { return client.Close() })
		checker.Register("redis", health.NewRedisChecker(client))
		prometheus.MustRegister(appredis.NewPoolStatsCollector(client))
	}

	// Session store per configuration; the memory store needs its own
	// expiry sweeper, Redis relies on key TTLs.
	var (
		store    session.Store
		memStore *session.MemoryStore
	)
	if cfg.Session.Backend == "redis" && redisClient != nil {
		store = session.NewRedisStore(redisClient, log, cfg.Session.IdleTTL)
	} else {
		memStore = session.NewMemoryStore()
		store = memStore

		sweeper := session.NewSweeper(memStore, log, cfg.Session.IdleTTL, cfg.Session.SweepInterval)
		go sweeper.Run(ctx)
	}

	var idemStore idempotency.Store
	if redisClient != nil {
		idemStore = idempotency.NewRedisStore(redisClient, log)
	} else {
		idemStore = idempotency.NewMemoryStore()
	}

	// The simulator stands in for the wallet engine; a production build
	// plugs the real clients into this struct.
	sim := wallet.NewSimulator()
	backends := orchestrator.Backends{
		Directory: sim,
		Balances:  sim,
		Quoter:    sim,
		Transfers: sim,
		Trades:    sim,
		Minting:   sim,
		Keys:      sim,
	}

	var notifier *jobs.QueueNotifier
	if cfg.Redis.Enabled {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		notifier = jobs.NewQueueNotifier(redisOpt, log)
		backends.Notifier = notifier
		shutdown.Register("notifier", func(context.Context) error { return notifier.Close() })
	}

	orch := orchestrator.New(backends, orchestrator.Options{
		NativeFeeBuffer: cfg.Trade.NativeFeeBuffer,
		CallTimeout:     cfg.Trade.CallTimeout,
	}, log)

	eng := engine.New(
		store,
		orch,
		sim,
		sim,
		idempotency.NewManager(idemStore, log),
		apperrors.NewHandler(log, cfg.Sentry.Enabled),
		log,
		engine.Config{DefaultSlippageBps: cfg.Trade.DefaultSlippageBps},
	)

	var limiter ratelimit.Limiter
	memLimiter := ratelimit.NewMemoryLimiter()
	limiter = memLimiter
	if redisClient != nil {
		limiter = ratelimit.NewAdaptiveLimiter(
			ratelimit.NewRedisLimiter(redisClient, log), memLimiter, log)

		cleaner := ratelimit.NewCleaner(redisClient, log, 10*time.Minute)
		go cleaner.Run(ctx)
	}
	go pruneLoop(ctx, memLimiter)

	b, err := bot.New(*cfg, eng, log,
		middleware.Recovery(log),
		middleware.RateLimit(limiter, middleware.RateLimitRules{
			PerUser:   cfg.RateLimit.PerUser,
			Window:    cfg.RateLimit.Window,
			Whitelist: cfg.RateLimit.Whitelist,
		}, log),
		middleware.Telemetry(log),
	)
	if err != nil {
		return err
	}
	checker.Register("telegram", health.NewTelegramChecker(b.Telebot()))

	if cfg.Redis.Enabled {
		worker := jobs.NewWorker(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, b.Telebot(), log)
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("notification worker failed", slog.Any("error", err))
			}
		}()
		shutdown.Register("worker", func(context.Context) error { worker.Shutdown(); return nil })
	}

	if memStore != nil {
		collector := metrics.NewSessionCollector(func() map[string]int {
			counts := make(map[string]int)
			for _, sess := range memStore.Snapshot() {
				counts[string(sess.State)]++
			}
			return counts
		}, 15*time.Second)
		go collector.Run(ctx)
	}

	// Hot reload of runtime tunables. Structural settings (token, backends)
	// require a restart.
	go func() {
		if err := config.Watch(cfg.AppEnv, log, func(fresh *config.Config) {
			eng.SetDefaultSlippage(fresh.Trade.DefaultSlippageBps)
		}); err != nil {
			log.Warn("config watcher stopped", slog.Any("error", err))
		}
	}()

	ops := graceful.NewOpsServer(cfg.Server.Port, checker, log)
	go func() {
		if err := ops.ListenAndServe(ctx); err != nil {
			log.Error("ops server failed", slog.Any("error", err))
		}
	}()

	shutdown.Register("telegram", func(context.Context) error { b.Stop(); return nil })

	go b.Start()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return shutdown.Execute(shutdownCtx)
}

func pruneLoop(ctx context.Context, limiter *ratelimit.MemoryLimiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune(time.Hour)
		}
	}
}
