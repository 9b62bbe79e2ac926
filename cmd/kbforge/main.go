package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"golang.org/x/sync/errgroup"

	"github.com/kbforge/kbforge/internal/adapter/cache"
	"github.com/kbforge/kbforge/internal/adapter/engine"
	kbhttp "github.com/kbforge/kbforge/internal/adapter/http"
	kbnats "github.com/kbforge/kbforge/internal/adapter/nats"
	"github.com/kbforge/kbforge/internal/adapter/postgres"
	"github.com/kbforge/kbforge/internal/adapter/scoring"
	"github.com/kbforge/kbforge/internal/config"
	"github.com/kbforge/kbforge/internal/logger"
	"github.com/kbforge/kbforge/internal/middleware"
	"github.com/kbforge/kbforge/internal/orchestration"
	"github.com/kbforge/kbforge/internal/resilience"
	"github.com/kbforge/kbforge/internal/routing"
	"github.com/kbforge/kbforge/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(logger.New(cfg.Logging))

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"temporal", cfg.Temporal.HostPort,
	)

	router, err := routing.New(cfg.Routing)
	if err != nil {
		return fmt.Errorf("routing: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := kbnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	store := postgres.NewStore(pool)

	criteria, err := cache.NewCriteriaProvider(store, cfg.Cache)
	if err != nil {
		return fmt.Errorf("criteria cache: %w", err)
	}
	defer criteria.Close()

	scorer := scoring.NewClient(cfg.Scoring)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	scorer.SetBreaker(breaker)

	manager := engine.New(cfg.Temporal)
	defer manager.Close()

	// --- Services ---

	ingestSvc := service.NewIngestService(store, manager, cfg.Review)
	reviewSvc := service.NewReviewService(store, manager)
	inboxSvc := service.NewInboxService(store)

	// --- HTTP ---

	handlers := &kbhttp.Handlers{
		Ingest:  ingestSvc,
		Review:  reviewSvc,
		Inbox:   inboxSvc,
		Engine:  manager,
		Store:   store,
		Scoring: breaker,
	}

	r := chi.NewRouter()
	r.Use(kbhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(kbhttp.Logger)
	r.Use(kbhttp.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	kbhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Workers come up as soon as the engine is reachable. An unreachable
	// engine keeps the HTTP surface serving in degraded mode: uploads park
	// in pending and the supervisor keeps retrying.
	g.Go(func() error {
		return superviseWorkers(gctx, manager, router, workerDeps{
			assess: orchestration.NewAssessActivities(scorer, criteria),
			store:  orchestration.NewStoreActivities(store, queue),
			notify: orchestration.NewNotifyActivities(store, queue),
		})
	})

	return g.Wait()
}

type workerDeps struct {
	assess *orchestration.AssessActivities
	store  *orchestration.StoreActivities
	notify *orchestration.NotifyActivities
}

// engineSource is the manager surface the worker supervisor needs.
type engineSource interface {
	EnsureConnected(ctx context.Context) (client.Client, error)
	MarkDown(err error) bool
}

const redialWait = 15 * time.Second

// superviseWorkers dials the engine, starts the three tier workers, and
// keeps them running until ctx ends. Once up, the workers handle connection
// loss themselves; the supervisor only retries getting them started.
func superviseWorkers(ctx context.Context, eng engineSource, router *routing.Router, deps workerDeps) error {
	return supervise(ctx, eng, redialWait, func(c client.Client) (func(), error) {
		workers, err := startWorkers(c, router, deps)
		if err != nil {
			return nil, err
		}
		slog.Info("tier workers started", "tiers", len(workers))
		return func() {
			for _, w := range workers {
				w.Stop()
			}
		}, nil
	})
}

// supervise retries start until it succeeds, then blocks until ctx ends and
// calls the returned stop. Every failed iteration waits before the next try,
// whether the dial or the start itself failed.
func supervise(ctx context.Context, eng engineSource, wait time.Duration, start func(client.Client) (func(), error)) error {
	for {
		c, err := eng.EnsureConnected(ctx)
		if err == nil {
			var stop func()
			if stop, err = start(c); err == nil {
				<-ctx.Done()
				stop()
				return nil
			}
			slog.Error("worker start failed", "retry_in", wait, "error", err)
			eng.MarkDown(err)
		} else {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("workers idle, engine unreachable", "retry_in", wait, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// startWorkers brings up one worker per tier, sized from config, with the
// workflow registered on the coordination tier that also hosts its task
// queue.
func startWorkers(c client.Client, router *routing.Router, deps workerDeps) ([]worker.Worker, error) {
	build := func(tier routing.Tier) worker.Worker {
		limits := router.Limits(tier)
		return worker.New(c, string(tier), worker.Options{
			MaxConcurrentActivityExecutionSize:     limits.MaxConcurrentActivities,
			MaxConcurrentWorkflowTaskExecutionSize: limits.MaxConcurrentWorkflowTasks,
		})
	}

	heavy := build(routing.TierHeavyCompute)
	heavy.RegisterActivity(deps.assess.AssessRelevance)

	storage := build(routing.TierStorageIO)
	storage.RegisterActivity(deps.store.PersistStatus)
	storage.RegisterActivity(deps.store.RecordAssessment)
	storage.RegisterActivity(deps.store.RecordReviewDecision)
	storage.RegisterActivity(deps.store.IndexDocument)

	coordination := build(routing.TierGeneralCoordination)
	coordination.RegisterActivity(deps.notify.EmitSignal)
	coordination.RegisterWorkflow(orchestration.DocumentReviewWorkflow)

	workers := []worker.Worker{heavy, storage, coordination}
	for i, w := range workers {
		if err := w.Start(); err != nil {
			for _, started := range workers[:i] {
				started.Stop()
			}
			return nil, err
		}
	}
	return workers, nil
}
