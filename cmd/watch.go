package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"Atlas/core/indexer"
	"Atlas/logger"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "索引后持续监听媒体库变化",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.close()

		w, err := startWatcher(ctx, a)
		if err != nil {
			return err
		}
		fmt.Println("watching libraries, press Ctrl-C to stop")
		return w.Run(ctx)
	},
}

// startWatcher indexes every available library once, then registers it
// with a new watcher. The caller runs the watcher.
func startWatcher(ctx context.Context, a *app) (*indexer.Watcher, error) {
	w, err := indexer.NewWatcher(a.ix, indexer.DefaultSettle)
	if err != nil {
		return nil, err
	}
	for _, lib := range a.libs.Refresh() {
		if err := indexOne(ctx, a, lib); err != nil {
			logger.Warn("initial index failed", logger.String("library", lib.Name), logger.ErrorField(err))
			continue
		}
		if err := w.Watch(lib); err != nil {
			logger.Warn("watch library", logger.String("library", lib.Name), logger.ErrorField(err))
		}
	}
	return w, nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
