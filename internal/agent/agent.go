// Package agent implements the tool-routing loop: the model reasons over the
// conversation, selects among the registered retrieval tools, observes their
// results, and eventually emits a final natural-language answer.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/segmenta/internal/costs"
	"github.com/user/segmenta/pkg/llm"
)

// ExhaustedError is returned when the reasoning loop exceeds its cycle
// bound without reaching a final answer. Fatal for the request.
type ExhaustedError struct {
	Rounds int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("agent: max tool rounds (%d) exceeded", e.Rounds)
}

// Agent drives the routing loop for one session.
type Agent struct {
	provider  llm.Provider
	registry  *Registry
	costs     *costs.Collector
	maxRounds int
	log       *slog.Logger
}

// New creates an Agent. maxRounds bounds reasoning/tool cycles per query.
func New(provider llm.Provider, registry *Registry, collector *costs.Collector, maxRounds int, log *slog.Logger) *Agent {
	return &Agent{
		provider:  provider,
		registry:  registry,
		costs:     collector,
		maxRounds: maxRounds,
		log:       log,
	}
}

// Run processes one user query to completion and returns the final answer.
// Tool failures are observed as textual results the model can reason about;
// only provider failures and loop exhaustion surface as errors.
func (a *Agent) Run(ctx context.Context, hist *History, query string) (string, error) {
	hist.Add(llm.Message{Role: "user", Content: query})

	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.provider.Complete(ctx, hist.Messages(), a.registry.AsLLMTools())
		if err != nil {
			return "", fmt.Errorf("LLM call: %w", err)
		}
		a.costs.AddLLM(resp.Usage.InputTokens, resp.Usage.OutputTokens)

		if len(resp.ToolCalls) > 0 {
			hist.Add(llm.Message{
				Role:    "assistant",
				Content: resp.Content,
				Tools:   resp.ToolCalls,
			})
			for _, tc := range resp.ToolCalls {
				result := a.execute(ctx, tc)
				hist.Add(llm.Message{
					Role:    "tool",
					Content: result,
					Tools:   []llm.ToolCall{{ID: tc.ID}},
				})
			}
			continue
		}

		// Text response with no tool calls is the final answer. An empty
		// response also terminates; there is nothing left to observe.
		hist.Add(llm.Message{Role: "assistant", Content: resp.Content})
		return resp.Content, nil
	}

	return "", &ExhaustedError{Rounds: a.maxRounds}
}

func (a *Agent) execute(ctx context.Context, tc llm.ToolCall) string {
	name := tc.Function.Name
	a.log.Debug("tool selected", "tool", name, "call_id", tc.ID)

	tool, ok := a.registry.Get(name)
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", name)
	}

	result, err := tool.Execute(ctx, tc.Function.Arguments)
	if err != nil {
		a.log.Debug("tool failed", "tool", name, "error", err)
		return fmt.Sprintf("error: %v", err)
	}
	a.log.Debug("tool completed", "tool", name, "result_len", len(result))
	return result
}
