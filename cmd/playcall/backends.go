package main

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gridiron-labs/playcall/internal/config"
	"github.com/gridiron-labs/playcall/internal/logic"
)

// backends holds every optional connection. A nil field means the backend
// was not configured.
type backends struct {
	pg     *pgxpool.Pool
	ch     driver.Conn
	redis  *redis.Client
	sqlite *logic.SQLiteSnapshotStore

	// store is Postgres when configured, otherwise SQLite.
	store logic.SnapshotStore
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func openBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backends, error) {
	log := logger.Sugar()
	b := &backends{}

	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pg = pool
		if err := pool.Ping(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		store := logic.NewPostgresSnapshotStore(pool)
		if err := store.Migrate(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.store = store
		log.Infow("Connected", "db", "PostgreSQL")
	}

	if cfg.ClickHouseURL != "" {
		opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("parse clickhouse url: %w", err)
		}
		conn, err := clickhouse.Open(opts)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		b.ch = conn
		if err := conn.Ping(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping clickhouse: %w", err)
		}
		if err := logic.MigratePlays(ctx, conn); err != nil {
			b.Close()
			return nil, err
		}
		log.Infow("Connected", "db", "ClickHouse")
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		b.redis = redis.NewClient(opts)
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Infow("Connected", "db", "Redis")
	}

	if b.store == nil && cfg.SQLitePath != "" {
		store, err := logic.OpenSQLiteSnapshotStore(ctx, cfg.SQLitePath)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.sqlite = store
		b.store = store
		log.Infow("Using local snapshot store", "path", cfg.SQLitePath)
	}

	return b, nil
}

// fallbackRecorder returns nil when Redis is not configured.
func (b *backends) fallbackRecorder() logic.FallbackRecorder {
	if b.redis == nil {
		return nil
	}
	return logic.NewRedisFallbackStats(b.redis)
}

func (b *backends) Close() {
	if b.pg != nil {
		b.pg.Close()
	}
	if b.ch != nil {
		b.ch.Close()
	}
	if b.redis != nil {
		b.redis.Close()
	}
	if b.sqlite != nil {
		b.sqlite.Close()
	}
}
