// Package store provides read access to the CRM relational database.
//
// Two fixed schemas are served: customers (one row per customer snapshot)
// and events (append-only clickstream log). All query text arriving here is
// engine-validated, not user-sanitized; failures surface as *QueryError so
// callers can fold them into a user-visible message instead of crashing the
// request.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// QueryError indicates a malformed or unexecutable SQL fragment.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Store wraps a Postgres connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// CandidateIDs executes the behavioral narrowing query: the distinct set of
// customers whose events match the given WHERE fragment. Order is the
// engine-native order and not guaranteed stable across calls.
func (s *Store) CandidateIDs(ctx context.Context, where string) ([]int64, error) {
	query := "SELECT DISTINCT customer_id FROM events WHERE " + where
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return ids, nil
}

// Select executes a read-only query and returns each row as a column→value
// map. Non-SELECT statements are rejected before reaching the database.
func (s *Store) Select(ctx context.Context, query string) ([]map[string]any, error) {
	if err := checkReadOnly(query); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}

		record := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			// pq hands back []byte for text columns in generic scans
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			record[col] = v
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return out, nil
}

// Exec runs a statement with no result rows. Used by ingestion to rebuild
// the schemas; the discovery core itself never mutates.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return &QueryError{Query: query, Err: err}
	}
	return nil
}

// Begin starts a transaction for batch ingestion.
func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// checkReadOnly rejects statements that are not plain SELECTs (CTEs allowed).
func checkReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if strings.ContainsRune(trimmed, ';') {
		return fmt.Errorf("multiple statements are not allowed")
	}

	first := strings.ToUpper(firstWord(trimmed))
	switch first {
	case "SELECT", "WITH":
		return nil
	default:
		return fmt.Errorf("only SELECT statements are allowed, got %q", first)
	}
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' {
			return s[:i]
		}
	}
	return s
}
