// Package app wires the configured backends into a ready-to-query
// audience discovery session.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/user/segmenta/internal/agent"
	"github.com/user/segmenta/internal/agent/tools"
	"github.com/user/segmenta/internal/config"
	"github.com/user/segmenta/internal/costs"
	"github.com/user/segmenta/internal/discovery"
	"github.com/user/segmenta/internal/store"
	"github.com/user/segmenta/internal/vector"
	"github.com/user/segmenta/pkg/llm"
	"github.com/user/segmenta/pkg/llm/openai"
)

const systemPrompt = `You are an audience discovery expert for a customer data platform.
Your goal is to provide accurate audience segments using your specialized tools.

HYBRID DISCOVERY (the priority flow):
When a user asks for an audience based on behavior (purchases, views) and interests:
1. Identify behavioral SQL conditions for the 'sql_where' parameter (e.g., product='socks').
2. Identify semantic intent for the 'query' parameter (e.g., "luxury enthusiasts").
3. Call 'hybrid_discovery' to get the refined segment.
4. If details/JSON are requested, use 'sql_data_retriever' with the resulting customer_ids.

CORE RULES:
- ALWAYS respond in English.
- NEVER assume data. ALWAYS use your tools.
- Use 'hybrid_discovery' for discovery. Use 'sql_analytics' for counting/metrics.`

// App holds every long-lived dependency of one discovery session. The
// conversation history persists across RunQuery calls so follow-up
// questions can reference earlier answers.
type App struct {
	cfg      *config.Config
	store    *store.Store
	index    *vector.Qdrant
	provider llm.Provider
	embedder llm.Embedder
	agent    *agent.Agent
	history  *agent.History
	costs    *costs.Collector
	log      *slog.Logger
}

// New connects to Postgres and Qdrant and builds the tool-routing agent.
// The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	st, err := store.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	index, err := vector.NewQdrant(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Qdrant.Collection)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}

	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	embedder := openai.New(&llm.Config{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	})

	enc, err := costs.LoadEncoding(cfg.LLM.Model)
	if err != nil {
		// Token accounting degrades to a length estimate.
		log.Warn("tokenizer unavailable, using estimated counts", "model", cfg.LLM.Model, "error", err)
		enc = nil
	}
	collector := costs.New(enc)

	orch := discovery.NewOrchestrator(st, index, embedder, provider, collector, log)
	analytics := discovery.NewAnalytics(st, provider, collector, log)

	registry := agent.NewRegistry()
	registry.Register(tools.NewSQLAnalytics(analytics))
	registry.Register(tools.NewHybridDiscovery(orch))
	registry.Register(tools.NewDataRetriever(st))

	return &App{
		cfg:      cfg,
		store:    st,
		index:    index,
		provider: provider,
		embedder: embedder,
		agent:    agent.New(provider, registry, collector, cfg.MaxToolRounds, log),
		history:  agent.NewHistory(systemPrompt),
		costs:    collector,
		log:      log,
	}, nil
}

// Close releases the backend connections.
func (a *App) Close() error {
	err := a.store.Close()
	if cerr := a.index.Close(); err == nil {
		err = cerr
	}
	return err
}

// Store exposes the relational store for maintenance commands.
func (a *App) Store() *store.Store { return a.store }

// Index exposes the vector index for maintenance commands.
func (a *App) Index() *vector.Qdrant { return a.index }

// Embedder exposes the embedding backend for maintenance commands.
func (a *App) Embedder() llm.Embedder { return a.embedder }

// RunQuery processes one user query through the agent and returns the
// answer together with the token usage of this query alone.
func (a *App) RunQuery(ctx context.Context, query string) (string, costs.Ledger, error) {
	log := a.log.With("request_id", uuid.NewString())
	log.Info("query started", "query", query)

	a.costs.Reset()
	answer, err := a.agent.Run(ctx, a.history, query)
	ledger := a.costs.Snapshot()
	if err != nil {
		return "", ledger, err
	}

	log.Info("query completed",
		"prompt_tokens", ledger.PromptTokens,
		"completion_tokens", ledger.CompletionTokens,
		"embedding_tokens", ledger.EmbeddingTokens,
		"total_tokens", ledger.TotalTokens,
	)
	return answer, ledger, nil
}
