package main

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gridiron-labs/playcall/internal/config"
	"github.com/gridiron-labs/playcall/internal/logic"
	"github.com/gridiron-labs/playcall/internal/registry"
)

var (
	trainSeasons []int
	trainSave    bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model from historical plays in ClickHouse",
	Long: `train reads the given seasons from the ClickHouse plays table, trains a fresh
model with the configured policy and stores it as a new snapshot. Running
servers subscribed through Redis reload it.`,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.ClickHouseURL == "" {
		return errors.New("train needs CLICKHOUSE_URL")
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Sugar()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	policy, err := cfg.Model.Policy()
	if err != nil {
		return err
	}
	reg, err := registry.New(policy)
	if err != nil {
		return err
	}

	seasons := append([]int(nil), trainSeasons...)
	sort.Ints(seasons)

	loader := logic.NewTrainingLoader(b.ch, logger).WithIdentityWindow(cfg.Model.IdentityWindow)
	summary, err := loader.Load(ctx, reg, seasons)
	if err != nil {
		return err
	}
	st := reg.Stats()
	log.Infow("Model trained",
		"seasons", seasons,
		"windows", summary.Windows,
		"situations", len(st.Tries),
		"sufficient", st.SufficientGroups,
		"sparse", st.SparseGroups,
	)

	if !trainSave {
		return nil
	}
	if b.store == nil {
		return logic.ErrNoSnapshotStore
	}
	info, err := logic.SaveRegistry(ctx, b.store, reg)
	if err != nil {
		return err
	}
	log.Infow("Snapshot saved", "id", info.ID, "bytes", info.Bytes)

	if b.redis != nil {
		if err := logic.NewRedisSnapshotNotifier(b.redis, logger).Notify(ctx, info.ID); err != nil {
			log.Warnw("Failed to announce snapshot", "id", info.ID, "error", err)
		}
	}
	return nil
}
