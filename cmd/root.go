package cmd

import (
	"fmt"
	"os"

	"Atlas/config"
	"Atlas/logger"

	"github.com/spf13/cobra"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Atlas indexes local music, audiobook and podcast libraries.",
	Long: `Atlas scans library directories into an artist/album/track graph,
keeps it current while files change, and serves it to players.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			cfg = config.Load(envFile)
		} else {
			cfg = config.Load()
		}
		return logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "extra .env file to load")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
