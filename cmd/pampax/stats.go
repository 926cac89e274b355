package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lemon07r/pampax"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report metadata store totals and recent query patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := pampax.Open(flagRoot, logger)
		if err != nil {
			return err
		}
		defer core.Close()

		ctx := context.Background()
		stats, err := core.GetStats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Chunks:     %d\n", stats.TotalChunks)
		fmt.Printf("Files:      %d\n", stats.DistinctFiles)
		fmt.Printf("Providers:  %d\n", stats.DistinctProviders)
		fmt.Printf("DB size:    %.2f MB\n", stats.DatabaseSizeMB)

		patterns, err := core.GetQueryAnalytics(ctx, 10)
		if err != nil {
			return err
		}
		if len(patterns) > 0 {
			fmt.Println("\nTop query patterns:")
			for _, p := range patterns {
				fmt.Printf("  %-40s %d\n", p.Pattern, p.Frequency)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
