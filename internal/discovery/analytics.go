package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/segmenta/internal/costs"
	"github.com/user/segmenta/pkg/llm"
)

// Executor runs a read-only query against the relational store.
type Executor interface {
	Select(ctx context.Context, query string) ([]map[string]any, error)
}

// Analytics answers analytical questions (counts, sums, aggregates) by
// translating them into SQL, executing deterministically, and phrasing the
// result. The translation is a delegated model capability; only the
// input/output contract is fixed here.
type Analytics struct {
	store    Executor
	provider llm.Provider
	costs    *costs.Collector
	log      *slog.Logger
}

// NewAnalytics creates the NL→SQL analytics engine.
func NewAnalytics(store Executor, provider llm.Provider, collector *costs.Collector, log *slog.Logger) *Analytics {
	return &Analytics{store: store, provider: provider, costs: collector, log: log}
}

const schemaDescription = `Table customers (customer_id integer, first_name text, last_name text, email text, country text, age integer, total_spent numeric, favorite_color text, created_at timestamp).
Table events (customer_id integer, event_type text, product text, color text, event_timestamp timestamp).
events.event_type is one of 'view', 'add_to_cart', 'purchase'. events.customer_id references customers.customer_id.`

const translatePrompt = "Translate the user's question into a single PostgreSQL SELECT statement over these tables:\n\n" +
	schemaDescription +
	"\n\nRespond with the SQL statement only. No explanation, no markdown fences."

// Answer resolves an analytical question to a deterministic result.
func (a *Analytics) Answer(ctx context.Context, question string) (string, error) {
	sqlText, err := a.translate(ctx, question)
	if err != nil {
		return "", err
	}
	a.log.Debug("analytics query translated", "question", question, "sql", sqlText)

	rows, err := a.store.Select(ctx, sqlText)
	if err != nil {
		return "", fmt.Errorf("execute analytics query: %w", err)
	}

	return a.phrase(ctx, question, sqlText, rows)
}

func (a *Analytics) translate(ctx context.Context, question string) (string, error) {
	resp, err := a.provider.Complete(ctx, []llm.Message{
		{Role: "system", Content: translatePrompt},
		{Role: "user", Content: question},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("translate question: %w", err)
	}
	a.costs.AddLLM(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	sqlText := stripFences(resp.Content)
	if sqlText == "" {
		return "", fmt.Errorf("model returned empty SQL for question %q", question)
	}
	return sqlText, nil
}

func (a *Analytics) phrase(ctx context.Context, question, sqlText string, rows []map[string]any) (string, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal result rows: %w", err)
	}

	resp, err := a.provider.Complete(ctx, []llm.Message{
		{Role: "system", Content: "Answer the user's question concisely from the SQL result. State numbers plainly."},
		{Role: "user", Content: fmt.Sprintf("Question: %s\nSQL: %s\nResult rows: %s", question, sqlText, data)},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("phrase analytics answer: %w", err)
	}
	a.costs.AddLLM(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return resp.Content, nil
}

// stripFences removes a surrounding markdown code fence, which models emit
// even when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
