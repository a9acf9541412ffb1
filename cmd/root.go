package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "irs990-lake",
	Short: "IRS Form 990 e-file data lake builder",
	Long:  "Downloads the IRS Form 990 bulk XML archives, normalizes every filing into return, officer, and grant tables, and exports them as CSV, JSON, XLSX, or rows in Postgres/SQLite.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
