// Package vector provides the semantic index used for audience refinement:
// a metadata filter model, its translation to Qdrant payload conditions, and
// top-K similarity search constrained by those conditions.
package vector

import "strconv"

// Operator is a filter predicate operator.
type Operator int

const (
	// OpEq matches a payload value exactly.
	OpEq Operator = iota
	// OpIn matches membership in a set of integer identifiers.
	OpIn
)

// Predicate is one typed condition against a payload key. EQ predicates set
// Value; the single IN predicate sets Values.
type Predicate struct {
	Key    string
	Op     Operator
	Value  any
	Values []int64
}

// Filter is a conjunction of predicates. Narrowing-only: predicates combine
// with AND, no OR, no negation, so applying a filter can only shrink the
// match set.
type Filter struct {
	Predicates []Predicate
}

// payloadKey mirrors the ingestion payload layout, where structured CRM
// attributes live under the "metadata" object.
func payloadKey(key string) string {
	return "metadata." + key
}

// BuildFilter translates an optional candidate-identifier set and optional
// structured constraints into a Filter. A nil candidate slice means no
// behavioral narrowing was requested; an empty one must have short-circuited
// the caller already. Returns nil when there is nothing to filter on.
func BuildFilter(candidates []int64, constraints map[string]any) *Filter {
	var preds []Predicate

	if candidates != nil {
		preds = append(preds, Predicate{
			Key:    payloadKey("customer_id"),
			Op:     OpIn,
			Values: candidates,
		})
	}

	for key, raw := range constraints {
		preds = append(preds, Predicate{
			Key:   payloadKey(key),
			Op:    OpEq,
			Value: Coerce(raw),
		})
	}

	if len(preds) == 0 {
		return nil
	}
	return &Filter{Predicates: preds}
}

// Coerce types an untyped constraint value. Strings that parse as integer
// literals become int64, strings that parse as floating-point literals become
// float64, anything else is returned unchanged. A string that happens to be
// the literal form of a number is always treated as numeric; that is the
// documented contract, not an accident.
func Coerce(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if isDigits(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
