package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridiron-labs/playcall/internal/config"
	"github.com/gridiron-labs/playcall/internal/handlers"
	"github.com/gridiron-labs/playcall/internal/logic"
	"github.com/gridiron-labs/playcall/internal/registry"
	"github.com/gridiron-labs/playcall/internal/worker"
)

var snapshotOnExit bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the live ingest worker",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Sugar()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	reg, err := initialRegistry(ctx, cfg, b, log)
	if err != nil {
		return err
	}

	predCfg := logic.PredictionConfig{
		Registry: reg,
		Fallback: b.fallbackRecorder(),
		Logger:   logger,
	}
	if b.store != nil {
		predCfg.Store = b.store
	}
	var notifier *logic.RedisSnapshotNotifier
	if b.redis != nil {
		notifier = logic.NewRedisSnapshotNotifier(b.redis, logger)
		predCfg.Notifier = notifier
	}
	svc := logic.NewPredictionService(predCfg)

	pool := worker.NewPool(worker.PoolConfig{
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Trainer:       svc,
		ClickHouse:    b.ch,
		Logger:        logger,
	})
	pool.Start(ctx)

	hcfg := handlers.Config{
		WorkerPool: pool,
		Prediction: svc,
		ClickHouse: b.ch,
		Redis:      b.redis,
		Logger:     logger,
	}
	if b.pg != nil {
		hcfg.Postgres = b.pg
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Handle("/metrics", promhttp.Handler())
	handlers.New(hcfg).Register(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("Listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if notifier != nil {
		g.Go(func() error {
			return notifier.Watch(gctx, b.redis, func(ctx context.Context) error {
				_, err := svc.ReloadSnapshot(ctx)
				return err
			})
		})
	}

	err = g.Wait()

	// Every accepted play is trained before the final snapshot.
	pool.Stop()
	if snapshotOnExit && b.store != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if info, serr := svc.SaveSnapshot(saveCtx); serr != nil {
			log.Errorw("Failed to save snapshot on exit", "error", serr)
		} else {
			log.Infow("Snapshot saved on exit", "id", info.ID)
		}
	}
	return err
}

// initialRegistry restores the latest snapshot when one exists and
// otherwise starts an empty model from the configured policy.
func initialRegistry(ctx context.Context, cfg *config.Config, b *backends, log *zap.SugaredLogger) (*registry.Registry, error) {
	if b.store != nil {
		reg, info, err := logic.LoadLatest(ctx, b.store)
		switch {
		case err == nil:
			log.Infow("Restored snapshot", "id", info.ID, "situations", info.Situations, "created_at", info.CreatedAt)
			return reg, nil
		case !errors.Is(err, logic.ErrNoSnapshot):
			return nil, err
		}
	}

	policy, err := cfg.Model.Policy()
	if err != nil {
		return nil, err
	}
	log.Infow("Starting with an empty model", "maxDepth", policy.MaxDepth, "extensions", policy.Extensions.Names())
	return registry.New(policy)
}
