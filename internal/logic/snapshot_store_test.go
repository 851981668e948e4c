package logic

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gridiron-labs/playcall/internal/models"
)

type MockPgPool struct {
	ExecCalls []string
	ExecArgs  [][]any
	Row       pgx.Row
}

func (m *MockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (m *MockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.Row
}

func (m *MockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.ExecCalls = append(m.ExecCalls, sql)
	m.ExecArgs = append(m.ExecArgs, args)
	return pgconn.CommandTag{}, nil
}

type MockPgRow struct {
	values []any
	err    error
}

func (r *MockPgRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		assign(dest[i], r.values[i])
	}
	return nil
}

func TestPostgresSnapshotStore_Save(t *testing.T) {
	pool := &MockPgPool{}
	store := NewPostgresSnapshotStore(pool)
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	info := models.SnapshotInfo{ID: "0b0e6f5e-8c1b-4c1e-9d6a-1f0c3a9f1e11", CreatedAt: time.Now(), Situations: 4}
	if err := store.Save(ctx, info, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if len(pool.ExecCalls) != 2 {
		t.Fatalf("exec calls = %d, want 2", len(pool.ExecCalls))
	}
	if !strings.Contains(pool.ExecCalls[0], "CREATE TABLE IF NOT EXISTS model_snapshots") {
		t.Errorf("unexpected migration: %s", pool.ExecCalls[0])
	}
	args := pool.ExecArgs[1]
	if args[0] != info.ID || args[2] != 4 {
		t.Errorf("unexpected insert args: %v", args)
	}
}

func TestPostgresSnapshotStore_Latest(t *testing.T) {
	created := time.Date(2024, 9, 8, 17, 0, 0, 0, time.UTC)
	pool := &MockPgPool{Row: &MockPgRow{values: []any{"id-1", created, 3, []byte(`{"version":1}`)}}}
	store := NewPostgresSnapshotStore(pool)

	info, data, err := store.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if info.ID != "id-1" || !info.CreatedAt.Equal(created) || info.Situations != 3 || info.Bytes != len(data) {
		t.Errorf("info = %+v", info)
	}

	pool.Row = &MockPgRow{err: pgx.ErrNoRows}
	if _, _, err := store.Latest(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSQLiteSnapshotStore_SaveAndLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, _, err := store.Latest(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		info := models.SnapshotInfo{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute), Situations: i}
		if err := store.Save(ctx, info, []byte(id)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	info, data, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if info.ID != "c" || string(data) != "c" || info.Situations != 2 {
		t.Errorf("latest = %+v %q", info, data)
	}
	if !info.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("created at = %v", info.CreatedAt)
	}

	if err := store.Save(ctx, models.SnapshotInfo{ID: "a", CreatedAt: base}, nil); err == nil {
		t.Error("expected duplicate id to fail")
	}
}

func TestRedisFallbackStats_Counts(t *testing.T) {
	rc := NewMockRedisClient()
	stats := NewRedisFallbackStats(rc)
	ctx := context.Background()

	for _, rec := range [][2]string{
		{"third_short/score=trailing", "BASE"},
		{"third_short/score=trailing", "BASE"},
		{"third_short/score=trailing", "SPECIFIC"},
		{"goal_line", "DEFAULT"},
	} {
		if err := stats.Record(ctx, rec[0], rec[1]); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	counts, err := stats.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts["third_short/score=trailing"]["BASE"] != 2 ||
		counts["third_short/score=trailing"]["SPECIFIC"] != 1 ||
		counts["goal_line"]["DEFAULT"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
