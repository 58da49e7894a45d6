package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Selector runs a read-only query against the customers schema.
type Selector interface {
	Select(ctx context.Context, query string) ([]map[string]any, error)
}

// DataRetriever fetches complete, campaign-ready customer records once a
// segment has been identified.
type DataRetriever struct {
	store Selector
}

// NewDataRetriever creates the raw data retrieval tool.
func NewDataRetriever(store Selector) *DataRetriever {
	return &DataRetriever{store: store}
}

func (d *DataRetriever) Name() string { return "sql_data_retriever" }

func (d *DataRetriever) Description() string {
	return "Fetch detailed JSON customer profiles after a segment has been identified. " +
		"Available columns in customers: customer_id, first_name, last_name, email, country, age, total_spent, favorite_color."
}

func (d *DataRetriever) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "A complete PostgreSQL SELECT statement over the customers table, typically scoped to known customer_ids"}
		},
		"required": ["query"]
	}`)
}

func (d *DataRetriever) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}
	if params.Query == "" {
		return "", fmt.Errorf("query is required")
	}

	rows, err := d.store.Select(ctx, params.Query)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "No records found.", nil
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	return string(data), nil
}
