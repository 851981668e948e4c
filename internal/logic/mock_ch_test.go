package logic

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type MockConn struct {
	driver.Conn
	mu sync.Mutex

	// Seasons maps the first query arg (the season list) to its rows.
	Seasons    map[int][][]interface{}
	FailSeason int
	QueryCalls int
	Queries    []string
	Execs      []string
}

func (m *MockConn) Exec(ctx context.Context, query string, args ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Execs = append(m.Execs, query)
	return nil
}

func (m *MockConn) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	m.mu.Lock()
	m.QueryCalls++
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()

	var season int
	if len(args) > 0 {
		if s, ok := args[0].([]int); ok && len(s) == 1 {
			season = s[0]
		}
	}
	if season != 0 && season == m.FailSeason {
		return nil, errors.New("clickhouse unavailable")
	}
	return &MockRows{rows: m.Seasons[season]}, nil
}

type MockRows struct {
	driver.Rows
	rows     [][]interface{}
	rowIndex int
}

func (m *MockRows) Next() bool {
	m.rowIndex++
	return m.rowIndex <= len(m.rows)
}

func (m *MockRows) Scan(dest ...interface{}) error {
	row := m.rows[m.rowIndex-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i := range dest {
		assign(dest[i], row[i])
	}
	return nil
}

func (m *MockRows) Close() error {
	return nil
}

func (m *MockRows) Err() error {
	return nil
}

func assign(dest interface{}, val interface{}) {
	// Simple reflection to assign value to pointer
	v := reflect.ValueOf(dest).Elem()
	if val == nil {
		v.Set(reflect.Zero(v.Type()))
		return
	}
	v.Set(reflect.ValueOf(val))
}

// playRow builds a row in playColumns order.
func playRow(game, drive string, idx, season int64, team, playType string, down, togo, yardline int64, scoreDiff *float64) []interface{} {
	return []interface{}{
		game, drive, idx, season, team, playType,
		down, togo, yardline,
		scoreDiff, (*float64)(nil), "home", (*float64)(nil),
	}
}
