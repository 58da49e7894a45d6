package vector

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Qdrant implements Index against a Qdrant collection over gRPC.
type Qdrant struct {
	client     *qdrant.Client
	collection string
}

// NewQdrant connects to a Qdrant instance. port is the gRPC port.
func NewQdrant(host string, port int, collection string) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &Qdrant{client: client, collection: collection}, nil
}

// Close releases the gRPC connection.
func (q *Qdrant) Close() error {
	return q.client.Close()
}

// Search performs filtered top-K similarity search.
func (q *Qdrant) Search(ctx context.Context, queryVec []float32, k int, f *Filter) ([]Match, error) {
	req := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(queryVec...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	}

	if f != nil {
		filter, err := toQdrantFilter(f)
		if err != nil {
			return nil, err
		}
		req.Filter = filter
	}

	points, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		m := Match{
			ID:      int64(p.GetId().GetNum()),
			Score:   p.GetScore(),
			Payload: payloadToMap(p.GetPayload()),
		}
		if text, ok := m.Payload["text"].(string); ok {
			m.Text = text
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Recreate drops the collection if present and creates it fresh with cosine
// distance, matching the ingestion contract.
func (q *Qdrant) Recreate(ctx context.Context, dim uint64) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Upsert writes a batch of points, waiting for them to be applied so that a
// search issued right after ingestion sees the data.
func (q *Qdrant) Upsert(ctx context.Context, points []Point) error {
	pts := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload, err := qdrant.TryValueMap(p.Payload)
		if err != nil {
			return fmt.Errorf("point %d payload: %w", p.ID, err)
		}
		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         pts,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// toQdrantFilter translates a Filter into Qdrant must-conditions.
func toQdrantFilter(f *Filter) (*qdrant.Filter, error) {
	must := make([]*qdrant.Condition, 0, len(f.Predicates))
	for _, p := range f.Predicates {
		switch p.Op {
		case OpIn:
			must = append(must, qdrant.NewMatchInts(p.Key, p.Values...))
		case OpEq:
			cond, err := eqCondition(p)
			if err != nil {
				return nil, err
			}
			must = append(must, cond)
		default:
			return nil, fmt.Errorf("unknown filter operator %d", p.Op)
		}
	}
	return &qdrant.Filter{Must: must}, nil
}

func eqCondition(p Predicate) (*qdrant.Condition, error) {
	switch v := p.Value.(type) {
	case string:
		return qdrant.NewMatch(p.Key, v), nil
	case int64:
		return qdrant.NewMatchInt(p.Key, v), nil
	case int:
		return qdrant.NewMatchInt(p.Key, int64(v)), nil
	case bool:
		return qdrant.NewMatchBool(p.Key, v), nil
	case float64:
		// Payload match has no float equality; a degenerate range is the
		// closest expressible condition.
		return qdrant.NewRange(p.Key, &qdrant.Range{
			Gte: qdrant.PtrOf(v),
			Lte: qdrant.PtrOf(v),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported filter value type %T for key %q", p.Value, p.Key)
	}
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		items := make([]any, 0, len(values))
		for _, item := range values {
			items = append(items, valueToAny(item))
		}
		return items
	default:
		return nil
	}
}
