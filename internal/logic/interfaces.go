package logic

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/gridiron-labs/playcall/internal/models"
)

// PgPool defines the interface for PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RedisClient defines the interface for Redis client
type RedisClient interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// PredictionService answers play-call queries against the live registry
// and manages its persisted snapshots.
type PredictionService interface {
	Predict(ctx context.Context, req *models.PredictRequest) (*models.PlayPrediction, error)
	TrainDrive(ctx context.Context, drive *models.Drive) (int, error)
	Accepts(sym models.Symbol) bool
	GetModelStats(ctx context.Context) (*models.ModelStats, error)
	SaveSnapshot(ctx context.Context) (*models.SnapshotInfo, error)
	ReloadSnapshot(ctx context.Context) (*models.SnapshotInfo, error)
}

// SnapshotStore persists serialized registries.
type SnapshotStore interface {
	Save(ctx context.Context, info models.SnapshotInfo, data []byte) error
	// Latest returns ErrNoSnapshot when nothing was saved yet.
	Latest(ctx context.Context) (*models.SnapshotInfo, []byte, error)
}

// FallbackRecorder keeps durable per-situation fallback counters.
type FallbackRecorder interface {
	Record(ctx context.Context, specificKey, level string) error
	Counts(ctx context.Context) (map[string]map[string]int64, error)
}
