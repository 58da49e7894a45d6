package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/segmenta/pkg/llm"
	"github.com/user/segmenta/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured LLM backend with one round trip",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		provider := openai.New(&llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})

		resp, err := provider.Complete(cmd.Context(), []llm.Message{
			{Role: "user", Content: "Hello, who are you?"},
		}, nil)
		if err != nil {
			return fmt.Errorf("LLM check failed: %w", err)
		}

		fmt.Println(resp.Content)
		fmt.Printf("\nTokens: %d prompt, %d completion\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
		return nil
	},
}
