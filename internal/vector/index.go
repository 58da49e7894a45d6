package vector

import "context"

// Match is one ranked similarity-search result.
type Match struct {
	ID      int64
	Score   float32
	Text    string
	Payload map[string]any
}

// Point is one document to index: a customer profile vector with its payload.
type Point struct {
	ID      int64
	Vector  []float32
	Payload map[string]any
}

// Index is the semantic index boundary. The discovery core only searches;
// Recreate and Upsert exist for the ingestion path.
type Index interface {
	// Search returns up to k matches for the query vector, constrained by
	// the filter (nil means unconstrained).
	Search(ctx context.Context, queryVec []float32, k int, f *Filter) ([]Match, error)

	// Recreate drops and recreates the collection with the given
	// vector dimensionality.
	Recreate(ctx context.Context, dim uint64) error

	// Upsert writes a batch of points.
	Upsert(ctx context.Context, points []Point) error
}
