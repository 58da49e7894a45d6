package store

import (
	"errors"
	"testing"
)

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"plain select", "SELECT * FROM customers", false},
		{"lowercase select", "select customer_id from customers", false},
		{"leading whitespace", "  \n\tSELECT 1", false},
		{"trailing semicolon", "SELECT 1;", false},
		{"cte", "WITH t AS (SELECT 1) SELECT * FROM t", false},
		{"update", "UPDATE customers SET age = 0", true},
		{"delete", "DELETE FROM events", true},
		{"insert", "INSERT INTO customers VALUES (1)", true},
		{"drop", "DROP TABLE customers", true},
		{"stacked statements", "SELECT 1; DROP TABLE customers", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkReadOnly(tt.query)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkReadOnly(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			}
		})
	}
}

func TestQueryErrorUnwrap(t *testing.T) {
	inner := errors.New("syntax error at or near \"FROOM\"")
	qe := &QueryError{Query: "SELECT * FROOM events", Err: inner}

	if !errors.Is(qe, inner) {
		t.Error("QueryError should unwrap to the underlying error")
	}

	var target *QueryError
	if !errors.As(error(qe), &target) {
		t.Error("errors.As should match *QueryError")
	}
}
