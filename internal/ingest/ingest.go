// Package ingest loads CRM and clickstream CSV exports into Postgres and
// builds the semantic customer index in Qdrant.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/user/segmenta/internal/store"
	"github.com/user/segmenta/internal/vector"
	"github.com/user/segmenta/pkg/llm"
)

// upsertBatch is how many customers are embedded and uploaded per request.
const upsertBatch = 100

// embedWorkers bounds concurrent embedding requests.
const embedWorkers = 4

// Customer is one CRM record.
type Customer struct {
	ID            int64
	FirstName     string
	LastName      string
	Email         string
	Country       string
	Age           int
	TotalSpent    float64
	FavoriteColor string
	CreatedAt     string
}

// Event is one clickstream record.
type Event struct {
	CustomerID int64
	Type       string
	Product    string
	Color      string
	Timestamp  string
}

// Ingestor rebuilds both backends from CSV exports.
type Ingestor struct {
	store    *store.Store
	index    vector.Index
	embedder llm.Embedder
	dim      uint64
	log      *slog.Logger
}

// New creates an Ingestor. dim must match the embedding model's output size.
func New(st *store.Store, index vector.Index, embedder llm.Embedder, dim int, log *slog.Logger) *Ingestor {
	return &Ingestor{store: st, index: index, embedder: embedder, dim: uint64(dim), log: log}
}

// Run replaces the customers and events tables and recreates the vector
// collection from the given CSV files. Everything is rebuilt from scratch;
// there is no incremental mode.
func (in *Ingestor) Run(ctx context.Context, customersPath, eventsPath string) error {
	customers, err := LoadCustomers(customersPath)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	events, err := LoadEvents(eventsPath)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	in.log.Info("source data loaded", "customers", len(customers), "events", len(events))

	if err := in.loadPostgres(ctx, customers, events); err != nil {
		return err
	}
	in.log.Info("postgres ingestion complete")

	if err := in.loadQdrant(ctx, customers, events); err != nil {
		return err
	}
	in.log.Info("vector ingestion complete")
	return nil
}

func (in *Ingestor) loadPostgres(ctx context.Context, customers []Customer, events []Event) error {
	ddl := []string{
		`DROP TABLE IF EXISTS customers`,
		`DROP TABLE IF EXISTS events`,
		`CREATE TABLE customers (
			customer_id    integer PRIMARY KEY,
			first_name     text,
			last_name      text,
			email          text,
			country        text,
			age            integer,
			total_spent    numeric,
			favorite_color text,
			created_at     timestamp
		)`,
		`CREATE TABLE events (
			customer_id     integer,
			event_type      text,
			product         text,
			color           text,
			event_timestamp timestamp
		)`,
	}
	for _, q := range ddl {
		if err := in.store.Exec(ctx, q); err != nil {
			return fmt.Errorf("rebuild tables: %w", err)
		}
	}

	tx, err := in.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback()

	custStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO customers (customer_id, first_name, last_name, email, country, age, total_spent, favorite_color, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return err
	}
	defer custStmt.Close()
	for _, c := range customers {
		if _, err := custStmt.ExecContext(ctx, c.ID, c.FirstName, c.LastName, c.Email, c.Country, c.Age, c.TotalSpent, c.FavoriteColor, c.CreatedAt); err != nil {
			return fmt.Errorf("insert customer %d: %w", c.ID, err)
		}
	}

	evStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (customer_id, event_type, product, color, event_timestamp)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return err
	}
	defer evStmt.Close()
	for _, e := range events {
		if _, err := evStmt.ExecContext(ctx, e.CustomerID, e.Type, e.Product, e.Color, e.Timestamp); err != nil {
			return fmt.Errorf("insert event for customer %d: %w", e.CustomerID, err)
		}
	}

	return tx.Commit()
}

func (in *Ingestor) loadQdrant(ctx context.Context, customers []Customer, events []Event) error {
	if err := in.index.Recreate(ctx, in.dim); err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}

	byCustomer := make(map[int64][]Event, len(customers))
	for _, e := range events {
		byCustomer[e.CustomerID] = append(byCustomer[e.CustomerID], e)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkers)
	for start := 0; start < len(customers); start += upsertBatch {
		batch := customers[start:min(start+upsertBatch, len(customers))]
		g.Go(func() error {
			return in.processBatch(ctx, batch, byCustomer)
		})
	}
	return g.Wait()
}

func (in *Ingestor) processBatch(ctx context.Context, batch []Customer, byCustomer map[int64][]Event) error {
	texts := make([]string, len(batch))
	profiles := make([]Profile, len(batch))
	for i, c := range batch {
		p := BuildProfile(c, byCustomer[c.ID])
		profiles[i] = p
		texts[i] = p.Description
	}

	resp, err := in.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(resp.Vectors) != len(batch) {
		return fmt.Errorf("embed batch: got %d vectors for %d customers", len(resp.Vectors), len(batch))
	}

	points := make([]vector.Point, len(batch))
	for i, p := range profiles {
		points[i] = vector.Point{
			ID:      batch[i].ID,
			Vector:  resp.Vectors[i],
			Payload: p.Payload(),
		}
	}
	if err := in.index.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	in.log.Debug("batch indexed", "customers", len(batch))
	return nil
}

// Profile is the semantic document for one customer.
type Profile struct {
	Customer    Customer
	Interests   string
	LikesLuxury bool
	Description string
}

// BuildProfile derives the indexed document from a customer and their events.
func BuildProfile(c Customer, events []Event) Profile {
	interests := interestSummary(events)
	lux := c.TotalSpent > 800

	desc := fmt.Sprintf("Customer %s %s (%s) from %s, age %d, favorite color %s. Total spent: %s. %s",
		c.FirstName, c.LastName, c.Email, c.Country, c.Age, c.FavoriteColor,
		strconv.FormatFloat(c.TotalSpent, 'f', -1, 64), interests)
	if lux {
		desc += " This customer likes luxury items."
	}

	return Profile{Customer: c, Interests: interests, LikesLuxury: lux, Description: desc}
}

// Payload is the point payload stored alongside the vector. Filterable
// attributes live under the metadata key.
func (p Profile) Payload() map[string]any {
	c := p.Customer
	return map[string]any{
		"customer_id": c.ID,
		"text":        p.Description,
		"metadata": map[string]any{
			"customer_id":          c.ID,
			"first_name":           c.FirstName,
			"last_name":            c.LastName,
			"email":                c.Email,
			"country":              c.Country,
			"age":                  c.Age,
			"total_spent":          c.TotalSpent,
			"favorite_color":       c.FavoriteColor,
			"created_at":           c.CreatedAt,
			"calculated_interests": p.Interests,
			"likes_luxury":         p.LikesLuxury,
		},
	}
}

// interestSummary scores products and colors by engagement depth and names
// the top two of each. Purchases count triple, cart adds double.
func interestSummary(events []Event) string {
	if len(events) == 0 {
		return "No specific behavioral interests calculated."
	}

	weights := map[string]int{"purchase": 3, "add_to_cart": 2, "view": 1}
	products := newScoreboard()
	colors := newScoreboard()
	for _, e := range events {
		w, ok := weights[e.Type]
		if !ok {
			w = 1
		}
		products.add(e.Product, w)
		colors.add(e.Color, w)
	}

	return fmt.Sprintf("Primary interests: %s. Preferred colors: %s.",
		joinTop(products.top(2)), joinTop(colors.top(2)))
}
