package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/stockalert/db"
	"github.com/dmitrymomot/stockalert/pkg/api"
	"github.com/dmitrymomot/stockalert/pkg/changefeed"
	"github.com/dmitrymomot/stockalert/pkg/clientip"
	"github.com/dmitrymomot/stockalert/pkg/config"
	"github.com/dmitrymomot/stockalert/pkg/email"
	"github.com/dmitrymomot/stockalert/pkg/httpserver"
	"github.com/dmitrymomot/stockalert/pkg/logger"
	"github.com/dmitrymomot/stockalert/pkg/notifier"
	"github.com/dmitrymomot/stockalert/pkg/pg"
	"github.com/dmitrymomot/stockalert/pkg/queue"
	"github.com/dmitrymomot/stockalert/pkg/ratelimit"
	"github.com/dmitrymomot/stockalert/pkg/redis"
	"github.com/dmitrymomot/stockalert/pkg/subscribers"
)

func main() {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.App.Env, cfg.App.ServiceName),
		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
			if id := middleware.GetReqID(ctx); id != "" {
				return logger.RequestID(id), true
			}
			return slog.Attr{}, false
		}),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("service stopped")
}

// stores groups the storage-backed collaborators chosen by configuration.
type stores struct {
	subscriptions subscribers.Store
	jobs          queue.Storage
	readiness     map[string]httpserver.CheckFunc
	close         func()
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	limiterStore, closeLimiter, err := openLimiterStore(ctx, cfg, log, st.readiness)
	if err != nil {
		return err
	}
	defer closeLimiter()

	limiter, err := ratelimit.NewFixedWindow(limiterStore, cfg.RateLimit.Limit, cfg.RateLimit.Window, ratelimit.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	resolver, err := subscribers.NewResolver(st.subscriptions)
	if err != nil {
		return err
	}
	policy := cfg.Queue.Policy()
	enqueuer, err := queue.NewEnqueuer(st.jobs, queue.WithMaxAttempts(policy.MaxAttempts))
	if err != nil {
		return err
	}
	service, err := notifier.NewService(resolver, enqueuer, notifier.WithLogger(log))
	if err != nil {
		return err
	}

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to create email sender: %w", err)
	}
	delivery, err := notifier.NewDeliveryHandler(sender,
		notifier.WithFreshnessTracker(notifier.NewFreshnessTracker(cfg.App.FreshnessCapacity)),
		notifier.WithHandlerLogger(log))
	if err != nil {
		return err
	}

	worker, err := queue.NewWorker(st.jobs,
		queue.WithPullInterval(cfg.Queue.PollInterval),
		queue.WithLockTimeout(cfg.Queue.LockTimeout),
		queue.WithMaxConcurrentJobs(cfg.Queue.MaxConcurrentJobs),
		queue.WithThroughput(cfg.Queue.JobsPerSecond, time.Second),
		queue.WithPolicy(policy),
		queue.WithWorkerLogger(log))
	if err != nil {
		return err
	}
	if err := delivery.Register(worker); err != nil {
		return err
	}

	purger, err := queue.NewPurger(st.jobs,
		queue.WithPurgeInterval(cfg.Queue.PurgeInterval),
		queue.WithRetention(policy),
		queue.WithPurgerLogger(log))
	if err != nil {
		return err
	}
	inspector, err := queue.NewInspector(st.jobs)
	if err != nil {
		return err
	}

	ipResolver, err := clientip.NewResolverFromConfig(cfg.ClientIP)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.App.ChangeFeedEnabled {
		nc, err := changefeed.Connect(cfg.ChangeFeed, log)
		if err != nil {
			return err
		}
		defer nc.Close()
		st.readiness["nats"] = natsCheck(nc)

		consumer, err := changefeed.NewConsumer(nc, service,
			changefeed.WithConsumerSubject(cfg.ChangeFeed.Subject),
			changefeed.WithQueueGroup(cfg.ChangeFeed.QueueGroup),
			changefeed.WithConsumerLogger(log))
		if err != nil {
			return err
		}
		g.Go(consumer.Run(gctx))
	}

	router, err := api.NewRouter(api.Deps{
		Submitter:     service,
		Subscriptions: st.subscriptions,
		Jobs:          inspector,
		Inquiries:     api.LogInquirySink{Logger: log},
		InquiryLimit:  limiter,
		ClientIP:      ipResolver,
		Readiness:     st.readiness,
		ProbeTimeout:  cfg.HTTP.ProbeTimeout,
		Logger:        log,
	})
	if err != nil {
		return err
	}
	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g.Go(func() error { return server.Run(gctx, router) })
	g.Go(worker.Run(gctx))
	g.Go(purger.Run(gctx))
	g.Go(func() error {
		<-gctx.Done()
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Queue.ShutdownTimeout)
		defer cancel()
		if err := service.Close(closeCtx); err != nil {
			return fmt.Errorf("fan-outs still running at shutdown: %w", err)
		}
		return nil
	})

	log.InfoContext(ctx, "service started",
		slog.String("storage", cfg.App.Storage),
		slog.String("ratelimit_backend", cfg.RateLimit.Backend),
		slog.Bool("changefeed", cfg.App.ChangeFeedEnabled),
		slog.Bool("postmark", cfg.Email.UsePostmark()))

	return g.Wait()
}

func openStores(ctx context.Context, cfg Config, log *slog.Logger) (*stores, error) {
	switch cfg.App.Storage {
	case backendMemory:
		jobs := queue.NewMemoryStorage()
		return &stores{
			subscriptions: subscribers.NewMemoryStore(),
			jobs:          jobs,
			readiness:     map[string]httpserver.CheckFunc{},
			close:         func() { _ = jobs.Close() },
		}, nil
	case backendPostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres, pg.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := migrate(ctx, pool, cfg.Postgres, log); err != nil {
			pool.Close()
			return nil, err
		}
		subs, err := subscribers.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		jobs, err := queue.NewPostgresStorage(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			subscriptions: subs,
			jobs:          jobs,
			readiness:     map[string]httpserver.CheckFunc{"postgres": pg.Healthcheck(pool)},
			close:         pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.App.Storage)
}

func migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	if !cfg.MigrateOnStart {
		return nil
	}
	if cfg.MigrationsPath != "" {
		return pg.Migrate(ctx, pool, cfg, log)
	}
	return pg.MigrateFS(ctx, pool, db.Migrations, "migrations", cfg.MigrationsTable, log)
}

func openLimiterStore(ctx context.Context, cfg Config, log *slog.Logger, readiness map[string]httpserver.CheckFunc) (ratelimit.Store, func(), error) {
	switch cfg.RateLimit.Backend {
	case backendMemory, "":
		store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(cfg.RateLimit.CleanupInterval))
		return store, func() { _ = store.Close() }, nil
	case backendRedis:
		client, err := redis.Connect(ctx, cfg.Redis, redis.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		store, err := ratelimit.NewRedisStore(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		readiness["redis"] = redis.Healthcheck(client)
		return store, closeRedis(client, log), nil
	}
	return nil, nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
}

func closeRedis(client *goredis.Client, log *slog.Logger) func() {
	return func() {
		if err := client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			log.Warn("failed to close redis client", logger.Error(err))
		}
	}
}

func natsCheck(nc *nats.Conn) httpserver.CheckFunc {
	return func(context.Context) error {
		if !nc.IsConnected() {
			return fmt.Errorf("nats status %s", nc.Status())
		}
		return nil
	}
}
