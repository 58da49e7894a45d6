package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/segmenta/internal/app"
	"github.com/user/segmenta/internal/bench"
)

func init() {
	rootCmd.AddCommand(benchCmd)
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the benchmark scenarios and report token usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		a, err := app.New(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = bench.Run(cmd.Context(), a.RunQuery, os.Stdout)
		return err
	},
}
