package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/user/segmenta/internal/app"
	"github.com/user/segmenta/internal/ingest"
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("customers", "source_data/crm_customers.csv", "CRM customers CSV path")
	ingestCmd.Flags().String("events", "source_data/clickstream_events.csv", "clickstream events CSV path")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild Postgres tables and the vector index from CSV exports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		customersPath, _ := cmd.Flags().GetString("customers")
		eventsPath, _ := cmd.Flags().GetString("events")

		a, err := app.New(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		in := ingest.New(a.Store(), a.Index(), a.Embedder(), cfg.Embedding.Dimensions, slog.Default())
		if err := in.Run(cmd.Context(), customersPath, eventsPath); err != nil {
			return err
		}

		fmt.Println("Ingestion complete.")
		return nil
	},
}
