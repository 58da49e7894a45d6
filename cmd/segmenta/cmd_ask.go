package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/segmenta/internal/app"
	"github.com/user/segmenta/internal/costs"
)

func init() {
	rootCmd.AddCommand(askCmd, chatCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question about your audience",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		a, err := app.New(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		answer, ledger, err := a.RunQuery(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Println(answer)
		printCostReport(ledger)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive audience discovery session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		a, err := app.New(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		rule := strings.Repeat("=", 50)
		fmt.Printf("\n%s\n      Audience Discovery Platform CLI\n%s\n", rule, rule)
		fmt.Println("Type 'exit' to quit.")
		fmt.Println()

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("Ask a question about your audience: ")
			if !scanner.Scan() {
				break
			}
			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}
			if lower := strings.ToLower(query); lower == "exit" || lower == "quit" {
				break
			}

			fmt.Println("\nThinking...")
			answer, ledger, err := a.RunQuery(cmd.Context(), query)
			if err != nil {
				if cmd.Context().Err() != nil {
					break
				}
				fmt.Printf("\nError: %v\n\n", err)
				continue
			}

			fmt.Printf("\nAI Response:\n%s\n", answer)
			printCostReport(ledger)
			fmt.Printf("%s\n\n", strings.Repeat("-", 50))
		}

		fmt.Println("\nGoodbye!")
		return scanner.Err()
	},
}

func printCostReport(l costs.Ledger) {
	fmt.Printf("\n[COST OBSERVABILITY]\n")
	fmt.Printf("LLM Prompt Tokens: %d\n", l.PromptTokens)
	fmt.Printf("LLM Completion Tokens: %d\n", l.CompletionTokens)
	fmt.Printf("Embedding Tokens: %d\n", l.EmbeddingTokens)
	fmt.Printf("Total LLM Tokens: %d\n", l.TotalTokens)
}
