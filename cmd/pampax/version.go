package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lemon07r/pampax/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("pampax %s (built %s)\n", version, buildTime)
		fmt.Printf("Build mode:       %s\n", storage.BuildMode)
		fmt.Printf("SQLite driver:    %s\n", storage.DriverName)
		fmt.Printf("Vector extension: %v\n", storage.VectorExtensionAvailable)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
