// Package bench runs a fixed set of discovery scenarios against a live
// deployment and reports token consumption per query.
package bench

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/user/segmenta/internal/costs"
)

// Scenarios covers each routing path at least once: pure analytics, hybrid
// discovery with structured constraints, semantic interests, behavioral
// narrowing with data retrieval, and open-ended recommendation.
var Scenarios = []string{
	"How many customers are in the database?",
	"Find blue-themed customers from Germany who spent more than 500.",
	"Suggest a list of customers interested in jacket and shoes.",
	"Find customers who bought red socks in the last 6 months and like luxury. Show them as JSON.",
	"Recommend an audience for a luxury high-end fashion campaign in Poland.",
}

// QueryFunc processes one query and reports its token usage.
type QueryFunc func(ctx context.Context, query string) (string, costs.Ledger, error)

// Result is the outcome of one scenario.
type Result struct {
	Query    string
	Answer   string
	Ledger   costs.Ledger
	Duration time.Duration
	Err      error
}

// Run executes every scenario sequentially, writing a progress report to w.
// A failing scenario is recorded and the run continues.
func Run(ctx context.Context, run QueryFunc, w io.Writer) ([]Result, error) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n      Audience Discovery Benchmark\n%s\n\n", rule, rule)

	results := make([]Result, 0, len(Scenarios))
	totalTokens := 0
	start := time.Now()

	for i, q := range Scenarios {
		fmt.Fprintf(w, "Scenario %d: %s\n%s\n", i+1, q, strings.Repeat("-", 30))

		qStart := time.Now()
		answer, ledger, err := run(ctx, q)
		r := Result{Query: q, Answer: answer, Ledger: ledger, Duration: time.Since(qStart), Err: err}
		results = append(results, r)

		if err != nil {
			fmt.Fprintf(w, "FAILED: %v\n", err)
		} else {
			fmt.Fprintf(w, "Result Length: %d chars\nTokens Used: %d\n", len(answer), ledger.TotalTokens)
		}
		totalTokens += ledger.TotalTokens
		fmt.Fprintf(w, "%s\n\n", strings.Repeat("-", 30))

		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	fmt.Fprintf(w, "%s\n      Benchmark Summary\n%s\n", rule, rule)
	fmt.Fprintf(w, "Total Scenarios: %d\n", len(Scenarios))
	fmt.Fprintf(w, "Total Processing Time: %.2f seconds\n", time.Since(start).Seconds())
	fmt.Fprintf(w, "Total Token Consumption: %d\n", totalTokens)
	fmt.Fprintf(w, "Average Tokens per Query: %.0f\n", float64(totalTokens)/float64(len(Scenarios)))
	fmt.Fprintf(w, "%s\n\n", rule)

	return results, nil
}
