package logic

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridiron-labs/playcall/internal/models"
	"github.com/gridiron-labs/playcall/internal/registry"
	"github.com/gridiron-labs/playcall/internal/situation"
)

// DefaultK is the number of alternatives returned when a request leaves k unset.
const DefaultK = 5

// ErrNoSnapshotStore is returned by snapshot operations when no store is configured.
var ErrNoSnapshotStore = errors.New("no snapshot store configured")

// PredictionConfig wires the prediction service. Only Registry and Logger are required.
type PredictionConfig struct {
	Registry *registry.Registry
	Store    SnapshotStore
	Fallback FallbackRecorder
	Notifier SnapshotNotifier
	Logger   *zap.Logger
}

type predictionService struct {
	reg      atomic.Pointer[registry.Registry]
	store    SnapshotStore
	fallback FallbackRecorder
	notifier SnapshotNotifier
	logger   *zap.SugaredLogger
}

func NewPredictionService(cfg PredictionConfig) PredictionService {
	s := &predictionService{
		store:    cfg.Store,
		fallback: cfg.Fallback,
		notifier: cfg.Notifier,
		logger:   cfg.Logger.Sugar(),
	}
	s.reg.Store(cfg.Registry)
	situationsGauge.Set(float64(cfg.Registry.Len()))
	return s
}

func (s *predictionService) Predict(ctx context.Context, req *models.PredictRequest) (*models.PlayPrediction, error) {
	reg := s.reg.Load()

	k := req.K
	if k == 0 {
		k = DefaultK
	}
	soFar := make(models.Sequence, len(req.Context))
	for i, raw := range req.Context {
		soFar[i] = models.SymbolFromPlayType(raw)
	}

	res, err := reg.Predict(req.Situation, reg.ContextFor(soFar), k)
	if err != nil {
		return nil, err
	}

	predictionsTotal.WithLabelValues(string(res.Level)).Inc()
	matchedDepth.Observe(float64(res.MatchedDepth))
	if s.fallback != nil {
		if err := s.fallback.Record(ctx, res.SpecificKey.String(), string(res.Level)); err != nil {
			s.logger.Warnw("Failed to record fallback level", "key", res.SpecificKey.String(), "error", err)
		}
	}

	alphabet := reg.Policy().Alphabet
	pred := &models.PlayPrediction{
		Ranked:        make([]models.RankedPlay, len(res.Ranked)),
		MatchedDepth:  res.MatchedDepth,
		FallbackLevel: string(res.Level),
		SpecificKey:   res.SpecificKey.String(),
		BaseKey:       res.BaseKey.String(),
		Situation:     situation.Describe(res.SpecificKey),
	}
	for i, r := range res.Ranked {
		pred.Ranked[i] = models.RankedPlay{
			Symbol:      string(r.Symbol),
			Label:       alphabet.Label(r.Symbol),
			Probability: r.Probability,
		}
	}
	return pred, nil
}

func (s *predictionService) TrainDrive(ctx context.Context, drive *models.Drive) (int, error) {
	reg := s.reg.Load()
	n, err := reg.InsertDrive(drive)
	if err != nil {
		drivesRejected.Inc()
		return n, fmt.Errorf("drive %s/%s: %w", drive.GameID, drive.DriveID, err)
	}
	drivesTrained.Inc()
	situationsGauge.Set(float64(reg.Len()))
	return n, nil
}

// Accepts reports whether the live model's alphabet contains sym.
func (s *predictionService) Accepts(sym models.Symbol) bool {
	return s.reg.Load().Policy().Alphabet.Contains(sym)
}

func (s *predictionService) GetModelStats(ctx context.Context) (*models.ModelStats, error) {
	st := s.reg.Load().Stats()

	out := &models.ModelStats{
		MaxDepth:         st.MaxDepth,
		MinExamples:      st.MinExamples,
		Extensions:       st.Extensions,
		Situations:       len(st.Tries),
		TotalExamples:    st.TotalExamples,
		SufficientGroups: st.SufficientGroups,
		SparseGroups:     st.SparseGroups,
		FallbackCounts:   make(map[string]int64, len(st.Fallback)),
		Tries:            make([]models.SituationStats, 0, len(st.Tries)),
	}
	for level, n := range st.Fallback {
		out.FallbackCounts[string(level)] = n
	}
	for _, ts := range st.Tries {
		out.Tries = append(out.Tries, models.SituationStats{
			Key:           ts.Key.String(),
			Description:   situation.Describe(ts.Key),
			Examples:      ts.Examples,
			Sequences:     ts.Sequences,
			Nodes:         ts.Nodes,
			AvgBranching:  ts.AvgBranching,
			RootVisits:    ts.RootVisits,
			HasSufficient: ts.Sufficient,
		})
	}

	if s.fallback != nil {
		byKey, err := s.fallback.Counts(ctx)
		if err != nil {
			s.logger.Warnw("Failed to read fallback counters", "error", err)
		} else {
			out.FallbackByKey = byKey
		}
	}
	return out, nil
}

func (s *predictionService) SaveSnapshot(ctx context.Context) (*models.SnapshotInfo, error) {
	if s.store == nil {
		return nil, ErrNoSnapshotStore
	}
	info, err := SaveRegistry(ctx, s.store, s.reg.Load())
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Snapshot saved", "id", info.ID, "situations", info.Situations, "bytes", info.Bytes)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, info.ID); err != nil {
			s.logger.Warnw("Failed to announce snapshot", "id", info.ID, "error", err)
		}
	}
	return info, nil
}

func (s *predictionService) ReloadSnapshot(ctx context.Context) (*models.SnapshotInfo, error) {
	if s.store == nil {
		return nil, ErrNoSnapshotStore
	}
	reg, info, err := LoadLatest(ctx, s.store)
	if err != nil {
		return nil, err
	}
	s.reg.Store(reg)
	situationsGauge.Set(float64(reg.Len()))
	s.logger.Infow("Snapshot loaded", "id", info.ID, "situations", info.Situations)
	return info, nil
}

// SaveRegistry serializes reg and stores it under a fresh id.
func SaveRegistry(ctx context.Context, store SnapshotStore, reg *registry.Registry) (*models.SnapshotInfo, error) {
	start := time.Now()
	defer func() { snapshotDuration.WithLabelValues("save").Observe(time.Since(start).Seconds()) }()

	snap := reg.Snapshot()
	data, err := registry.MarshalSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	info := models.SnapshotInfo{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		Situations: len(snap.Situations),
		Bytes:      len(data),
	}
	if err := store.Save(ctx, info, data); err != nil {
		return nil, fmt.Errorf("save snapshot %s: %w", info.ID, err)
	}
	return &info, nil
}

// LoadLatest rebuilds the registry from the most recent snapshot.
func LoadLatest(ctx context.Context, store SnapshotStore) (*registry.Registry, *models.SnapshotInfo, error) {
	start := time.Now()
	defer func() { snapshotDuration.WithLabelValues("load").Observe(time.Since(start).Seconds()) }()

	info, data, err := store.Latest(ctx)
	if err != nil {
		return nil, nil, err
	}
	reg, err := registry.UnmarshalSnapshot(data)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", info.ID, err)
	}
	return reg, info, nil
}
