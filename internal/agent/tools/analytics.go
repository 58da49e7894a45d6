package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Answerer resolves an analytical question deterministically.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// SQLAnalytics exposes the NL→SQL analytics engine to the agent, for
// questions like "how many", counts, and sums.
type SQLAnalytics struct {
	engine Answerer
}

// NewSQLAnalytics creates the analytics tool.
func NewSQLAnalytics(engine Answerer) *SQLAnalytics {
	return &SQLAnalytics{engine: engine}
}

func (s *SQLAnalytics) Name() string { return "sql_analytics" }

func (s *SQLAnalytics) Description() string {
	return "Answer analytical questions like 'how many', counts, or sums. " +
		"Translates the question directly to SQL for deterministic CRM analysis."
}

func (s *SQLAnalytics) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"question": {"type": "string", "description": "The analytical question, in natural language"}
		},
		"required": ["question"]
	}`)
}

func (s *SQLAnalytics) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	if params.Question == "" {
		return "", fmt.Errorf("question is required")
	}

	return s.engine.Answer(ctx, params.Question)
}
