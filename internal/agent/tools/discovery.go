// Package tools contains the retrieval tools registered with the agent:
// hybrid audience discovery, SQL analytics, and the raw data retriever.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/segmenta/internal/discovery"
)

// Discoverer runs the narrow-then-refine pipeline.
type Discoverer interface {
	Discover(ctx context.Context, req discovery.Request) (string, error)
}

// HybridDiscovery exposes the hybrid orchestrator to the agent. This is the
// primary discovery engine: behavioral event filters combined with semantic
// intent.
type HybridDiscovery struct {
	orch Discoverer
}

// NewHybridDiscovery creates the hybrid discovery tool.
func NewHybridDiscovery(orch Discoverer) *HybridDiscovery {
	return &HybridDiscovery{orch: orch}
}

func (h *HybridDiscovery) Name() string { return "hybrid_discovery" }

func (h *HybridDiscovery) Description() string {
	return "Discover an audience segment by combining behavioral event filters (sql_where) " +
		"with semantic intent (query) and structured CRM constraints (filters). " +
		"Use this for any request describing who people are or what they did."
}

func (h *HybridDiscovery) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Semantic intent, e.g. 'interested in high-end lifestyle'"},
			"sql_where": {"type": "string", "description": "SQL WHERE fragment over the events table (columns: customer_id, event_type, product, color, event_timestamp), e.g. \"product='socks' AND event_type='purchase'\""},
			"filters": {"type": "object", "description": "Structured CRM constraints on customer attributes, e.g. {\"country\": \"PL\"}"}
		},
		"required": ["query"]
	}`)
}

func (h *HybridDiscovery) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Query    string         `json:"query"`
		SQLWhere string         `json:"sql_where"`
		Filters  map[string]any `json:"filters"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	if params.Query == "" {
		return "", fmt.Errorf("query is required")
	}

	return h.orch.Discover(ctx, discovery.Request{
		Query:       params.Query,
		Where:       params.SQLWhere,
		Constraints: params.Filters,
	})
}
