package handlers

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gridiron-labs/playcall/internal/logic"
	"github.com/gridiron-labs/playcall/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// IngestQueue defines the interface for the play ingestion worker pool
type IngestQueue interface {
	Enqueue(play *models.PlayRecord) bool
	QueueDepth() int
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the handler. Postgres, ClickHouse and Redis are optional and
// only consulted by the readiness probe.
type Config struct {
	WorkerPool IngestQueue
	Prediction logic.PredictionService
	Postgres   Pinger
	ClickHouse driver.Conn
	Redis      *redis.Client
	Logger     *zap.Logger
}

type Handler struct {
	pool       IngestQueue
	pg         Pinger
	ch         driver.Conn
	redis      *redis.Client
	logger     *zap.SugaredLogger
	validator  *validator.Validate
	prediction logic.PredictionService
}

func New(cfg Config) *Handler {
	return &Handler{
		pool:       cfg.WorkerPool,
		pg:         cfg.Postgres,
		ch:         cfg.ClickHouse,
		redis:      cfg.Redis,
		logger:     cfg.Logger.Sugar(),
		validator:  validator.New(),
		prediction: cfg.Prediction,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/predict", h.Predict)
		r.Post("/ingest/plays", h.IngestPlays)

		r.Route("/model", func(r chi.Router) {
			r.Get("/stats", h.GetModelStats)
			r.Post("/snapshot", h.SaveSnapshot)
			r.Post("/reload", h.ReloadSnapshot)
		})
	})
}
