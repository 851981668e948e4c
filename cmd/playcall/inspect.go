package main

import (
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gridiron-labs/playcall/internal/config"
	"github.com/gridiron-labs/playcall/internal/logic"
)

var inspectTop int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print statistics of the latest stored model as JSON",
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()
	if b.store == nil {
		return logic.ErrNoSnapshotStore
	}

	reg, info, err := logic.LoadLatest(ctx, b.store)
	if err != nil {
		return err
	}
	svc := logic.NewPredictionService(logic.PredictionConfig{
		Registry: reg,
		Fallback: b.fallbackRecorder(),
		Logger:   logger,
	})
	stats, err := svc.GetModelStats(ctx)
	if err != nil {
		return err
	}

	if inspectTop > 0 && len(stats.Tries) > inspectTop {
		sort.SliceStable(stats.Tries, func(i, j int) bool {
			return stats.Tries[i].Examples > stats.Tries[j].Examples
		})
		stats.Tries = stats.Tries[:inspectTop]
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"snapshot": info,
		"model":    stats,
	})
}
