package handlers

import (
	"context"
	"sync"

	"github.com/gridiron-labs/playcall/internal/models"
)

// MockIngestQueue implements IngestQueue for testing
type MockIngestQueue struct {
	mu          sync.Mutex
	EnqueueFunc func(play *models.PlayRecord) bool
	Plays       []*models.PlayRecord
}

func (m *MockIngestQueue) Enqueue(play *models.PlayRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnqueueFunc != nil && !m.EnqueueFunc(play) {
		return false
	}
	m.Plays = append(m.Plays, play)
	return true
}

func (m *MockIngestQueue) QueueDepth() int { return 7 }

// MockPredictionService
type MockPredictionService struct {
	PredictFunc        func(ctx context.Context, req *models.PredictRequest) (*models.PlayPrediction, error)
	TrainDriveFunc     func(ctx context.Context, drive *models.Drive) (int, error)
	GetModelStatsFunc  func(ctx context.Context) (*models.ModelStats, error)
	SaveSnapshotFunc   func(ctx context.Context) (*models.SnapshotInfo, error)
	ReloadSnapshotFunc func(ctx context.Context) (*models.SnapshotInfo, error)
}

func (m *MockPredictionService) Predict(ctx context.Context, req *models.PredictRequest) (*models.PlayPrediction, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, req)
	}
	return &models.PlayPrediction{}, nil
}

func (m *MockPredictionService) TrainDrive(ctx context.Context, drive *models.Drive) (int, error) {
	if m.TrainDriveFunc != nil {
		return m.TrainDriveFunc(ctx, drive)
	}
	return len(drive.Plays), nil
}

func (m *MockPredictionService) Accepts(sym models.Symbol) bool {
	return sym == models.Pass || sym == models.Run
}

func (m *MockPredictionService) GetModelStats(ctx context.Context) (*models.ModelStats, error) {
	if m.GetModelStatsFunc != nil {
		return m.GetModelStatsFunc(ctx)
	}
	return &models.ModelStats{}, nil
}

func (m *MockPredictionService) SaveSnapshot(ctx context.Context) (*models.SnapshotInfo, error) {
	if m.SaveSnapshotFunc != nil {
		return m.SaveSnapshotFunc(ctx)
	}
	return &models.SnapshotInfo{ID: "mock"}, nil
}

func (m *MockPredictionService) ReloadSnapshot(ctx context.Context) (*models.SnapshotInfo, error) {
	if m.ReloadSnapshotFunc != nil {
		return m.ReloadSnapshotFunc(ctx)
	}
	return &models.SnapshotInfo{ID: "mock"}, nil
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(ctx context.Context) error { return m.Err }
