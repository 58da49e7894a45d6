package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/user/segmenta/internal/costs"
	"github.com/user/segmenta/pkg/llm"
)

// mockProvider returns pre-configured responses in order.
type mockProvider struct {
	responses []*llm.Response
	calls     int
}

func (m *mockProvider) Complete(_ context.Context, _ []llm.Message, _ []llm.Tool) (*llm.Response, error) {
	idx := m.calls
	m.calls++
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return m.responses[len(m.responses)-1], nil
}

func (m *mockProvider) Stream(_ context.Context, _ []llm.Message, _ []llm.Tool) (<-chan llm.Delta, error) {
	return nil, nil
}

// echoTool records its arguments and returns a fixed result.
type echoTool struct {
	name    string
	result  string
	err     error
	gotArgs json.RawMessage
	called  int
}

func (e *echoTool) Name() string                { return e.name }
func (e *echoTool) Description() string         { return "test tool" }
func (e *echoTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (e *echoTool) Execute(_ context.Context, args json.RawMessage) (string, error) {
	e.called++
	e.gotArgs = args
	return e.result, e.err
}

func toolCallResponse(name, args string) *llm.Response {
	return &llm.Response{
		ToolCalls: []llm.ToolCall{{
			ID:   "call_1",
			Type: "function",
			Function: llm.FunctionCall{
				Name:      name,
				Arguments: json.RawMessage(args),
			},
		}},
		Usage: llm.Usage{InputTokens: 10, OutputTokens: 5},
	}
}

func newTestAgent(provider llm.Provider, registry *Registry, maxRounds int) *Agent {
	return New(provider, registry, costs.New(nil), maxRounds, slog.New(slog.DiscardHandler))
}

func TestRunSimpleAnswer(t *testing.T) {
	provider := &mockProvider{responses: []*llm.Response{
		{Content: "There are 42 customers.", Usage: llm.Usage{InputTokens: 20, OutputTokens: 8}},
	}}
	a := newTestAgent(provider, NewRegistry(), 10)
	hist := NewHistory("system prompt")

	got, err := a.Run(context.Background(), hist, "How many customers?")
	if err != nil {
		t.Fatal(err)
	}
	if got != "There are 42 customers." {
		t.Errorf("got %q", got)
	}
	// system + user + assistant
	if hist.Len() != 3 {
		t.Errorf("history length = %d, want 3", hist.Len())
	}
}

func TestRunToolCallThenAnswer(t *testing.T) {
	tool := &echoTool{name: "hybrid_discovery", result: "Piotr and Anna match."}
	registry := NewRegistry()
	registry.Register(tool)

	provider := &mockProvider{responses: []*llm.Response{
		toolCallResponse("hybrid_discovery", `{"query":"luxury enthusiasts","sql_where":"product='socks'"}`),
		{Content: "The segment contains Piotr and Anna."},
	}}
	a := newTestAgent(provider, registry, 10)
	hist := NewHistory("sys")

	got, err := a.Run(context.Background(), hist, "Find luxury sock buyers")
	if err != nil {
		t.Fatal(err)
	}
	if got != "The segment contains Piotr and Anna." {
		t.Errorf("got %q", got)
	}
	if tool.called != 1 {
		t.Fatalf("tool called %d times, want 1", tool.called)
	}
	var args map[string]any
	if err := json.Unmarshal(tool.gotArgs, &args); err != nil {
		t.Fatalf("tool received malformed args: %v", err)
	}
	if args["query"] != "luxury enthusiasts" {
		t.Errorf("tool args = %v", args)
	}

	// The tool observation must be in history for the second reasoning round.
	var observed bool
	for _, m := range hist.Messages() {
		if m.Role == "tool" && m.Content == "Piotr and Anna match." {
			observed = true
		}
	}
	if !observed {
		t.Error("tool result was not recorded in history")
	}
}

func TestRunUnknownToolObservedAsError(t *testing.T) {
	provider := &mockProvider{responses: []*llm.Response{
		toolCallResponse("no_such_tool", `{}`),
		{Content: "done"},
	}}
	a := newTestAgent(provider, NewRegistry(), 10)
	hist := NewHistory("sys")

	if _, err := a.Run(context.Background(), hist, "q"); err != nil {
		t.Fatal(err)
	}

	var observation string
	for _, m := range hist.Messages() {
		if m.Role == "tool" {
			observation = m.Content
		}
	}
	if !strings.Contains(observation, `unknown tool "no_such_tool"`) {
		t.Errorf("observation = %q", observation)
	}
}

func TestRunToolErrorObservedNotFatal(t *testing.T) {
	tool := &echoTool{name: "sql_analytics", err: fmt.Errorf("relation does not exist")}
	registry := NewRegistry()
	registry.Register(tool)

	provider := &mockProvider{responses: []*llm.Response{
		toolCallResponse("sql_analytics", `{"question":"count"}`),
		{Content: "The query failed: relation does not exist."},
	}}
	a := newTestAgent(provider, registry, 10)
	hist := NewHistory("sys")

	got, err := a.Run(context.Background(), hist, "q")
	if err != nil {
		t.Fatalf("tool error must not unwind past observation: %v", err)
	}
	if !strings.Contains(got, "relation does not exist") {
		t.Errorf("got %q", got)
	}
}

func TestRunExhaustsLoopBound(t *testing.T) {
	tool := &echoTool{name: "hybrid_discovery", result: "more data"}
	registry := NewRegistry()
	registry.Register(tool)

	// Provider never produces a final answer.
	provider := &mockProvider{responses: []*llm.Response{
		toolCallResponse("hybrid_discovery", `{}`),
	}}
	a := newTestAgent(provider, registry, 3)

	_, err := a.Run(context.Background(), NewHistory("sys"), "q")
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Rounds != 3 {
		t.Errorf("Rounds = %d, want 3", exhausted.Rounds)
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}
}

func TestRunProviderErrorIsFatal(t *testing.T) {
	provider := &failingProvider{}
	a := newTestAgent(provider, NewRegistry(), 10)

	_, err := a.Run(context.Background(), NewHistory("sys"), "q")
	if err == nil {
		t.Fatal("expected provider error to surface")
	}
}

type failingProvider struct{}

func (f *failingProvider) Complete(_ context.Context, _ []llm.Message, _ []llm.Tool) (*llm.Response, error) {
	return nil, errors.New("backend unreachable")
}

func (f *failingProvider) Stream(_ context.Context, _ []llm.Message, _ []llm.Tool) (<-chan llm.Delta, error) {
	return nil, errors.New("backend unreachable")
}
