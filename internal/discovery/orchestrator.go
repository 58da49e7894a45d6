// Package discovery holds the retrieval strategies the agent routes between:
// the hybrid narrow-then-refine orchestrator and the NL→SQL analytics engine.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/segmenta/internal/costs"
	"github.com/user/segmenta/internal/vector"
	"github.com/user/segmenta/pkg/llm"
)

// NoMatchMessage is returned verbatim when behavioral narrowing yields an
// empty candidate set. Callers compare against it by equality, so the text
// must not change.
const NoMatchMessage = "No customers match the specified behavioral SQL conditions."

const narrowingErrPrefix = "SQL Error in narrowing: "

// topK is the fixed similarity-search result bound.
const topK = 10

// Narrower restricts the population to an exact-match identifier set.
type Narrower interface {
	CandidateIDs(ctx context.Context, where string) ([]int64, error)
}

// Searcher is the semantic refinement step.
type Searcher interface {
	Search(ctx context.Context, queryVec []float32, k int, f *vector.Filter) ([]vector.Match, error)
}

// Request is one hybrid discovery invocation.
type Request struct {
	// Query is the semantic intent, e.g. "luxury enthusiasts". Required.
	Query string
	// Where is an optional behavioral predicate over the events table,
	// e.g. "product = 'socks' AND event_type = 'purchase'".
	Where string
	// Constraints are optional structured CRM attributes, e.g. {"country": "PL"}.
	Constraints map[string]any
}

// Orchestrator combines behavioral narrowing with semantic refinement.
// Narrowing runs strictly first: exact-match behavioral predicates are never
// approximated by the semantic layer, and the similarity search is never run
// against zero viable candidates.
type Orchestrator struct {
	narrower Narrower
	index    Searcher
	embedder llm.Embedder
	provider llm.Provider
	costs    *costs.Collector
	log      *slog.Logger
}

// NewOrchestrator wires the two retrieval phases and the synthesis model.
func NewOrchestrator(narrower Narrower, index Searcher, embedder llm.Embedder, provider llm.Provider, collector *costs.Collector, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		narrower: narrower,
		index:    index,
		embedder: embedder,
		provider: provider,
		costs:    collector,
		log:      log,
	}
}

// Discover runs the two-phase pipeline and returns a natural-language
// audience segment. SQL failures in the narrowing phase come back as a
// textual result, not an error: they are observations for the agent to
// reason over, not request-fatal conditions.
func (o *Orchestrator) Discover(ctx context.Context, req Request) (string, error) {
	o.log.Debug("hybrid discovery starting",
		"query", req.Query,
		"sql_where", req.Where,
		"constraints", req.Constraints,
	)

	// Phase 1: behavioral gate.
	var candidates []int64
	if req.Where != "" {
		ids, err := o.narrower.CandidateIDs(ctx, req.Where)
		if err != nil {
			o.log.Debug("narrowing failed", "error", err)
			return narrowingErrPrefix + err.Error(), nil
		}
		if len(ids) == 0 {
			o.log.Debug("narrowing yielded no candidates")
			return NoMatchMessage, nil
		}
		o.log.Debug("narrowing complete", "candidates", len(ids))
		candidates = ids
	}

	// Phase 2: semantic refinement.
	filter := vector.BuildFilter(candidates, req.Constraints)

	emb, err := o.embedder.Embed(ctx, []string{req.Query})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	if len(emb.Vectors) == 0 {
		return "", fmt.Errorf("embedding backend returned no vector")
	}
	tokens := emb.Usage.TotalTokens
	if tokens == 0 {
		tokens = o.costs.CountTokens(req.Query)
	}
	o.costs.AddEmbedding(tokens)

	matches, err := o.index.Search(ctx, emb.Vectors[0], topK, filter)
	if err != nil {
		return "", fmt.Errorf("semantic search: %w", err)
	}
	o.log.Debug("semantic refinement complete", "matches", len(matches))

	if len(matches) == 0 {
		return "No matching customers found.", nil
	}

	return o.synthesize(ctx, req.Query, matches)
}

const synthesisSystemPrompt = "You summarize customer profiles retrieved for an audience discovery query. " +
	"Answer using only the profiles provided. Name the matching customers and say briefly why each fits the query. " +
	"Do not invent customers that are not in the profiles."

func (o *Orchestrator) synthesize(ctx context.Context, query string, matches []vector.Match) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n\nProfiles:\n", query)
	for _, m := range matches {
		fmt.Fprintf(&sb, "- %s\n", m.Text)
	}

	resp, err := o.provider.Complete(ctx, []llm.Message{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: "user", Content: sb.String()},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("synthesize segment: %w", err)
	}
	o.costs.AddLLM(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return resp.Content, nil
}
