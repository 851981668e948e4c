package logic

import (
	"context"
	"fmt"
	"slices"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridiron-labs/playcall/internal/models"
	"github.com/gridiron-labs/playcall/internal/registry"
	"github.com/gridiron-labs/playcall/internal/situation"
)

// TrainingSummary reports what a training run inserted.
type TrainingSummary struct {
	Plays    int `json:"plays"`
	Games    int `json:"games"`
	Drives   int `json:"drives"`
	Windows  int `json:"windows"`
	Rejected int `json:"rejected_drives"`
}

// TrainingLoader reads historical plays from ClickHouse and trains a registry.
type TrainingLoader struct {
	ch             driver.Conn
	logger         *zap.SugaredLogger
	identityWindow int
}

func NewTrainingLoader(ch driver.Conn, logger *zap.Logger) *TrainingLoader {
	return &TrainingLoader{
		ch:             ch,
		logger:         logger.Sugar(),
		identityWindow: situation.DefaultIdentityWindow,
	}
}

// WithIdentityWindow sets how many prior games feed a team's pass rate.
func (l *TrainingLoader) WithIdentityWindow(games int) *TrainingLoader {
	if games > 0 {
		l.identityWindow = games
	}
	return l
}

// playsSchema creates the table the worker archives to and the loader reads.
// Integer columns are Int64 to match the values the worker appends.
var playsSchema = []string{
	`CREATE DATABASE IF NOT EXISTS playcall`,
	`CREATE TABLE IF NOT EXISTS ` + PlaysTable + ` (
		game_id                String,
		drive_id               String,
		play_index             Int64,
		season                 Int64,
		week                   Int64,
		season_type            LowCardinality(String),
		posteam                LowCardinality(String),
		play_type              LowCardinality(String),
		down                   Int64,
		ydstogo                Int64,
		yardline_100           Int64,
		score_differential     Nullable(Float64),
		game_seconds_remaining Nullable(Float64),
		posteam_type           LowCardinality(String),
		epa                    Nullable(Float64),
		received_at            DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (season, game_id, drive_id, play_index)`,
}

// MigratePlays creates the plays table if it does not exist.
func MigratePlays(ctx context.Context, ch driver.Conn) error {
	for _, stmt := range playsSchema {
		if err := ch.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", PlaysTable, err)
		}
	}
	return nil
}

// FetchPlays runs one plays query and scans every row.
func (l *TrainingLoader) FetchPlays(ctx context.Context, q PlayQuery) ([]models.PlayRecord, error) {
	query, args, err := BuildPlaysQuery(q)
	if err != nil {
		return nil, err
	}
	rows, err := l.ch.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plays: %w", err)
	}
	defer rows.Close()

	var plays []models.PlayRecord
	for rows.Next() {
		var p models.PlayRecord
		var playIndex, season, down, ydstogo, yardline int64
		if err := rows.Scan(
			&p.GameID, &p.DriveID, &playIndex, &season, &p.Posteam, &p.PlayType,
			&down, &ydstogo, &yardline,
			&p.ScoreDifferential, &p.GameSecondsRemaining, &p.PosteamType, &p.EPA,
		); err != nil {
			return nil, fmt.Errorf("scan play: %w", err)
		}
		p.PlayIndex = int(playIndex)
		p.Season = int(season)
		p.Down = int(down)
		p.YardsToGo = int(ydstogo)
		p.YardlineFromGoal = int(yardline)
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

// Load fetches the given seasons in parallel and trains reg on them in
// chronological order. Training itself is sequential.
func (l *TrainingLoader) Load(ctx context.Context, reg *registry.Registry, seasons []int) (*TrainingSummary, error) {
	// Rolling identity needs the seasons in chronological order.
	seasons = slices.Compact(slices.Sorted(slices.Values(seasons)))
	results := make([][]models.PlayRecord, len(seasons))

	g, gctx := errgroup.WithContext(ctx)
	for i, season := range seasons {
		g.Go(func() error {
			plays, err := l.FetchPlays(gctx, PlayQuery{Seasons: []int{season}})
			if err != nil {
				return fmt.Errorf("season %d: %w", season, err)
			}
			l.logger.Infow("Season fetched", "season", season, "plays", len(plays))
			results[i] = plays
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.PlayRecord
	for _, plays := range results {
		all = append(all, plays...)
	}
	summary := TrainPlays(reg, all, l.identityWindow)
	l.logger.Infow("Training complete",
		"plays", summary.Plays,
		"games", summary.Games,
		"drives", summary.Drives,
		"rejected", summary.Rejected,
		"situations", reg.Len(),
	)
	return summary, nil
}

// TrainPlays trains reg on plays that are already in game order. Each
// team's pass rate over its previous games is filled in before a game is
// trained, and the game is recorded afterwards, so identity never leaks
// the game being predicted. Drives with unknown play types are skipped.
func TrainPlays(reg *registry.Registry, plays []models.PlayRecord, identityWindow int) *TrainingSummary {
	tracker := situation.NewPassRateTracker(identityWindow)
	summary := &TrainingSummary{Plays: len(plays)}

	for start := 0; start < len(plays); {
		end := start
		for end < len(plays) && plays[end].GameID == plays[start].GameID {
			end++
		}
		trainGame(reg, tracker, plays[start:end], summary)
		summary.Games++
		start = end
	}
	return summary
}

func trainGame(reg *registry.Registry, tracker *situation.PassRateTracker, game []models.PlayRecord, summary *TrainingSummary) {
	rates := make(map[string]float64)
	for i := range game {
		team := game[i].Posteam
		if _, ok := rates[team]; !ok {
			rates[team] = tracker.Rate(team)
		}
		if game[i].TeamPassRate == nil {
			game[i].TeamPassRate = models.Float(rates[team])
		}
	}

	for _, drive := range splitDrives(game) {
		n, err := reg.InsertDrive(drive)
		summary.Windows += n
		if err != nil {
			summary.Rejected++
			continue
		}
		summary.Drives++
	}

	calls := make(map[string]*situation.GameCalls)
	var teams []string
	for i := range game {
		team := game[i].Posteam
		c, ok := calls[team]
		if !ok {
			c = &situation.GameCalls{GameID: game[i].GameID}
			calls[team] = c
			teams = append(teams, team)
		}
		c.Plays++
		if game[i].Symbol() == models.Pass {
			c.Passes++
		}
	}
	for _, team := range teams {
		tracker.Record(team, *calls[team])
	}
}

// splitDrives groups consecutive plays of one game by drive id.
func splitDrives(game []models.PlayRecord) []*models.Drive {
	var drives []*models.Drive
	for i := range game {
		p := game[i]
		if len(drives) == 0 || drives[len(drives)-1].DriveID != p.DriveID {
			drives = append(drives, &models.Drive{GameID: p.GameID, DriveID: p.DriveID})
		}
		d := drives[len(drives)-1]
		d.Plays = append(d.Plays, p)
	}
	return drives
}
