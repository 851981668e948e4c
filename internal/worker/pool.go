// Package worker implements the buffered ingest pipeline for live plays.
// This decouples HTTP request handling from model training, providing:
// - Backpressure handling via load shedding
// - A single writer that assembles drives and trains the registry
// - Batch inserts of raw plays into ClickHouse
// - Graceful shutdown with flush guarantees

package worker

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/gridiron-labs/playcall/internal/models"
)

// Prometheus metrics
var (
	playsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcall_plays_ingested_total",
		Help: "Total number of plays accepted into the queue",
	})

	playsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcall_plays_dropped_total",
		Help: "Total number of plays dropped due to load shedding",
	})

	playsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcall_plays_skipped_total",
		Help: "Total number of archived plays left out of drives (punts, kicks, penalties)",
	})

	playsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcall_plays_archived_total",
		Help: "Total number of plays written to ClickHouse",
	})

	archiveFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcall_plays_archive_failed_total",
		Help: "Total number of plays that failed to archive",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playcall_worker_queue_depth",
		Help: "Current depth of the worker queue",
	})

	openDrives = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playcall_worker_open_drives",
		Help: "Drives being assembled",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playcall_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})
)

// Trainer receives every completed drive. Accepts reports whether a play
// call belongs to the model alphabet; other plays never enter a drive.
type Trainer interface {
	TrainDrive(ctx context.Context, drive *models.Drive) (int, error)
	Accepts(sym models.Symbol) bool
}

// Job represents a unit of work for the worker pool
type Job struct {
	Play     *models.PlayRecord
	Received time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Trainer       Trainer
	ClickHouse    driver.Conn // optional archive
	Logger        *zap.Logger
}

// Pool owns the ingest queue. A single goroutine drains it, so drives are
// assembled and trained without any locking of its own.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger

	drives   map[models.DriveKey]*models.Drive
	archive  []Job
	pending  atomic.Int64
	stopOnce sync.Once
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 30 * time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
		drives:   make(map[models.DriveKey]*models.Drive),
	}
}

// Start launches the worker goroutine
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.worker()

	// Start queue depth reporter
	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
		"flushInterval", p.config.FlushInterval,
		"archive", p.config.ClickHouse != nil,
	)
}

// Stop drains the queue, trains every open drive and flushes the archive.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Stopping worker pool...")
		close(p.jobQueue)
		p.wg.Wait()
		if p.cancel != nil {
			p.cancel()
		}
		p.logger.Info("Worker pool stopped")
	})
}

// Enqueue adds a play to the queue without blocking. It returns false when
// the queue is full or the pool is stopped.
func (p *Pool) Enqueue(play *models.PlayRecord) (ok bool) {
	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue play (pool stopped)", "error", r)
			playsDropped.Inc()
			ok = false
		}
	}()

	select {
	case p.jobQueue <- Job{Play: play, Received: time.Now()}:
		playsIngested.Inc()
		return true
	default:
		playsDropped.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// OpenDrives returns the number of drives waiting for more plays.
func (p *Pool) OpenDrives() int {
	return int(p.pending.Load())
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.tickInterval())
	defer ticker.Stop()

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				p.logger.Infow("Job queue closed, flushing open drives", "drives", len(p.drives))
				p.flushDrives(func(*models.Drive) bool { return true })
				p.flushArchive()
				return
			}
			p.handle(job)

		case now := <-ticker.C:
			p.flushDrives(func(d *models.Drive) bool {
				return now.Sub(d.LastSeen) >= p.config.FlushInterval
			})
			p.flushArchive()
		}
	}
}

// tickInterval checks idle drives several times per FlushInterval.
func (p *Pool) tickInterval() time.Duration {
	return max(p.config.FlushInterval/4, 10*time.Millisecond)
}

func (p *Pool) handle(job Job) {
	play := job.Play
	play.Posteam = sanitizeTeam(play.Posteam)
	play.PlayType = normalizePlayType(play.PlayType)

	if p.config.ClickHouse != nil {
		p.archive = append(p.archive, job)
		if len(p.archive) >= p.config.BatchSize {
			p.flushArchive()
		}
	}

	key := play.Key()
	d, ok := p.drives[key]
	if p.config.Trainer.Accepts(play.Symbol()) {
		if !ok {
			d = &models.Drive{GameID: play.GameID, DriveID: play.DriveID}
			p.drives[key] = d
			p.pending.Add(1)
			openDrives.Inc()
		}
		d.Plays = append(d.Plays, *play)
		d.LastSeen = job.Received
	} else {
		playsSkipped.Inc()
	}

	// A punt or kick can close a drive it never joined.
	if play.DriveEnd && d != nil {
		p.train(key, d)
	}
}

func (p *Pool) flushDrives(done func(*models.Drive) bool) {
	for key, d := range p.drives {
		if done(d) {
			p.train(key, d)
		}
	}
}

func (p *Pool) train(key models.DriveKey, d *models.Drive) {
	delete(p.drives, key)
	p.pending.Add(-1)
	openDrives.Dec()

	// Plays may arrive out of order; the feed index is authoritative.
	sort.SliceStable(d.Plays, func(i, j int) bool {
		return d.Plays[i].PlayIndex < d.Plays[j].PlayIndex
	})

	n, err := p.config.Trainer.TrainDrive(context.Background(), d)
	if err != nil {
		p.logger.Warnw("Drive rejected", "game", d.GameID, "drive", d.DriveID, "plays", len(d.Plays), "error", err)
		return
	}
	p.logger.Debugw("Drive trained", "game", d.GameID, "drive", d.DriveID, "windows", n)
}

func (p *Pool) flushArchive() {
	if len(p.archive) == 0 {
		return
	}

	start := time.Now()
	if err := p.processBatch(p.archive); err != nil {
		p.logger.Errorw("Batch processing failed", "batchSize", len(p.archive), "error", err)
		archiveFailed.Add(float64(len(p.archive)))
	} else {
		playsArchived.Add(float64(len(p.archive)))
	}
	batchInsertDuration.Observe(time.Since(start).Seconds())

	p.archive = p.archive[:0]
}

// processBatch writes raw plays to the table the training loader reads.
func (p *Pool) processBatch(batch []Job) error {
	ctx := context.Background()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO playcall.plays (
			game_id, drive_id, play_index, season, week, season_type,
			posteam, play_type, down, ydstogo, yardline_100,
			score_differential, game_seconds_remaining, posteam_type, epa,
			received_at
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		pl := job.Play
		err := chBatch.Append(
			pl.GameID,
			pl.DriveID,
			int64(pl.PlayIndex),
			int64(pl.Season),
			int64(pl.Week),
			pl.SeasonType,
			pl.Posteam,
			pl.PlayType,
			int64(pl.Down),
			int64(pl.YardsToGo),
			int64(pl.YardlineFromGoal),
			pl.ScoreDifferential,
			pl.GameSecondsRemaining,
			pl.PosteamType,
			pl.EPA,
			job.Received,
		)
		if err != nil {
			p.logger.Warnw("Failed to append play to batch", "error", err, "game", pl.GameID)
			continue
		}
	}

	return chBatch.Send()
}
