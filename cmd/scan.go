package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"Atlas/core/indexer"
	"Atlas/core/library"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [library-id...]",
	Short: "索引全部或指定的媒体库",
	Long:  `Walks every (or each named) library once and writes the result through to the database. Ctrl-C stops between files and keeps what was indexed so far.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.close()

		libs, err := a.selectLibraries(args)
		if err != nil {
			return err
		}
		if len(libs) == 0 {
			fmt.Println("no libraries configured, add one with `atlas libraries add`")
			return nil
		}
		for _, st := range a.ix.IndexAll(ctx, libs) {
			printStats(st)
		}
		counts := a.cart.Counts()
		fmt.Printf("graph: %d artists, %d albums, %d tracks\n", counts.Artists, counts.Albums, counts.Tracks)
		return nil
	},
}

func printStats(st indexer.Stats) {
	state := "complete"
	if st.Cancelled {
		state = "cancelled"
	}
	fmt.Printf("library %s: %s in %s, %d dirs, %d files, +%d ~%d -%d tracks, %d extraction failures, %d skipped dirs, %d unreadable dirs\n",
		st.Library, state, st.Elapsed.Round(time.Millisecond), st.Directories, st.Files,
		st.TracksCreated, st.TracksUpdated, st.TracksRemoved,
		st.ExtractionFailures, st.SkippedDirs, st.UnreadableDirs)
}

// indexOne runs a single pass and prints its stats.
func indexOne(ctx context.Context, a *app, lib *library.Library) error {
	st, err := a.ix.Index(ctx, lib)
	if err != nil {
		return err
	}
	printStats(st)
	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
