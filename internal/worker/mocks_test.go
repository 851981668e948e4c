package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/gridiron-labs/playcall/internal/models"
)

// MockTrainer records every drive it is given.
type MockTrainer struct {
	mu     sync.Mutex
	drives []*models.Drive
	Err    error
}

func (m *MockTrainer) TrainDrive(ctx context.Context, d *models.Drive) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drives = append(m.drives, d)
	if m.Err != nil {
		return 0, m.Err
	}
	return len(d.Plays), nil
}

func (m *MockTrainer) Accepts(sym models.Symbol) bool {
	return sym == models.Pass || sym == models.Run
}

func (m *MockTrainer) Drives() []*models.Drive {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Drive, len(m.drives))
	copy(out, m.drives)
	return out
}

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn
	mu       sync.Mutex
	batches  []*MockBatch
	FailSend bool
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &MockBatch{mu: &m.mu, failSend: m.FailSend}
	m.batches = append(m.batches, b)
	return b, nil
}

func (m *MockClickHouseConn) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		if b.sent {
			n += len(b.rows)
		}
	}
	return n
}

// AppendedRows returns every row of every sent batch.
func (m *MockClickHouseConn) AppendedRows() [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]interface{}
	for _, b := range m.batches {
		if b.sent {
			out = append(out, b.rows...)
		}
	}
	return out
}

type MockBatch struct {
	driver.Batch
	mu       *sync.Mutex
	rows     [][]interface{}
	sent     bool
	failSend bool
}

func (m *MockBatch) Append(v ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, v)
	return nil
}

func (m *MockBatch) Send() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return errors.New("clickhouse unavailable")
	}
	m.sent = true
	return nil
}

func (m *MockBatch) IsSent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

func (m *MockBatch) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
