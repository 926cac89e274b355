package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagRoot     string
	flagLogLevel string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "pampax",
	Short:         "Local, git-friendly semantic code memory",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLogLevel(flagLogLevel),
		}))
		slog.SetDefault(logger)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultLevel := os.Getenv("PAMPAX_LOG_LEVEL")
	if defaultLevel == "" {
		defaultLevel = "info"
	}
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "repository root to operate on")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", defaultLevel, "log level: debug, info, warn, error")
}

func parseLogLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
