package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lemon07r/pampax"
)

var (
	flagProvider string
	flagEncrypt  bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run a full indexing pass over the repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := pampax.Open(flagRoot, logger)
		if err != nil {
			return err
		}
		defer core.Close()

		opts := pampax.IndexOptions{Provider: flagProvider}
		if cmd.Flags().Changed("encrypt") {
			opts.Encrypt = &flagEncrypt
		}

		fmt.Printf("Indexing %s...\n", core.Root())
		start := time.Now()
		stats, err := core.Index(context.Background(), opts)
		if err != nil {
			return err
		}

		fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Chunks:   %d processed, %d total\n", stats.ProcessedChunks, stats.TotalChunks)
		fmt.Printf("  Provider: %s\n", stats.Provider)
		if len(stats.Errors) > 0 {
			fmt.Printf("  Errors:   %d (see log for detail)\n", len(stats.Errors))
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&flagProvider, "provider", "", "embedding provider override (jina, openai, cohere, ollama, local)")
	indexCmd.Flags().BoolVar(&flagEncrypt, "encrypt", false, "force chunk-body encryption for this run")
	rootCmd.AddCommand(indexCmd)
}
