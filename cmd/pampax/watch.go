package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemon07r/pampax"
	"github.com/lemon07r/pampax/internal/watcher"
)

var flagDebounceMs int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the repository and incrementally reindex on change",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := pampax.Open(flagRoot, logger)
		if err != nil {
			return err
		}
		defer core.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		handle, err := core.Watch(ctx, pampax.IndexOptions{Provider: flagProvider}, flagDebounceMs, func(b watcher.BatchResult) {
			fmt.Printf("reindexed: %d changed, %d deleted\n", len(b.Changed), len(b.Deleted))
		})
		if err != nil {
			return err
		}
		defer handle.Close()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		fmt.Printf("Watching %s (debounce %dms). Press Ctrl+C to stop.\n", core.Root(), flagDebounceMs)
		<-sigCh
		fmt.Println("Stopping watcher...")
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&flagProvider, "provider", "", "embedding provider override")
	watchCmd.Flags().IntVar(&flagDebounceMs, "debounce", 500, "debounce window in milliseconds")
	rootCmd.AddCommand(watchCmd)
}
