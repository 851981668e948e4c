package logic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	_ "modernc.org/sqlite"

	"github.com/gridiron-labs/playcall/internal/models"
)

// ErrNoSnapshot is returned by Latest when the store is empty.
var ErrNoSnapshot = errors.New("no snapshot stored")

// PostgresSnapshotStore keeps snapshots in the model_snapshots table.
type PostgresSnapshotStore struct {
	pool PgPool
}

func NewPostgresSnapshotStore(pool PgPool) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{pool: pool}
}

// Migrate creates the snapshot table if it does not exist.
func (s *PostgresSnapshotStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS model_snapshots (
			id          UUID PRIMARY KEY,
			created_at  TIMESTAMPTZ NOT NULL,
			situations  INTEGER NOT NULL,
			payload     JSONB NOT NULL
		)
	`)
	return err
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, info models.SnapshotInfo, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO model_snapshots (id, created_at, situations, payload)
		VALUES ($1, $2, $3, $4)
	`, info.ID, info.CreatedAt, info.Situations, data)
	return err
}

func (s *PostgresSnapshotStore) Latest(ctx context.Context) (*models.SnapshotInfo, []byte, error) {
	var info models.SnapshotInfo
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, created_at, situations, payload
		FROM model_snapshots
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&info.ID, &info.CreatedAt, &info.Situations, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, nil, err
	}
	info.Bytes = len(data)
	return &info, data, nil
}

// SQLiteSnapshotStore keeps snapshots in a local SQLite file, for single-node
// deployments and the CLI.
type SQLiteSnapshotStore struct {
	db *sql.DB
}

// OpenSQLiteSnapshotStore opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory store.
func OpenSQLiteSnapshotStore(ctx context.Context, path string) (*SQLiteSnapshotStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS model_snapshots (
			id          TEXT PRIMARY KEY,
			created_at  INTEGER NOT NULL,
			situations  INTEGER NOT NULL,
			payload     BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &SQLiteSnapshotStore{db: db}, nil
}

func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteSnapshotStore) Save(ctx context.Context, info models.SnapshotInfo, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO model_snapshots (id, created_at, situations, payload) VALUES (?, ?, ?, ?)`,
		info.ID, info.CreatedAt.UnixNano(), info.Situations, data)
	return err
}

func (s *SQLiteSnapshotStore) Latest(ctx context.Context) (*models.SnapshotInfo, []byte, error) {
	var info models.SnapshotInfo
	var created int64
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, situations, payload
		FROM model_snapshots
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`).Scan(&info.ID, &created, &info.Situations, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, nil, err
	}
	info.CreatedAt = time.Unix(0, created).UTC()
	info.Bytes = len(data)
	return &info, data, nil
}
