package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInterestSummary_WeightsAndTopTwo(t *testing.T) {
	// Shoes: 1 purchase = 3. Socks: 2 views = 2. Jacket: 1 view = 1.
	// Colors score the same way: black 3, red 2, blue 1.
	events := []Event{
		{Type: "view", Product: "socks", Color: "red"},
		{Type: "view", Product: "jacket", Color: "blue"},
		{Type: "purchase", Product: "shoes", Color: "black"},
		{Type: "view", Product: "socks", Color: "red"},
	}
	got := interestSummary(events)
	want := "Primary interests: shoes, socks. Preferred colors: black, red."
	if got != want {
		t.Errorf("interestSummary = %q, want %q", got, want)
	}
}

func TestInterestSummary_UnknownEventTypeCountsAsView(t *testing.T) {
	events := []Event{
		{Type: "wishlist", Product: "hat", Color: "green"},
		{Type: "add_to_cart", Product: "scarf", Color: "green"},
	}
	got := interestSummary(events)
	// add_to_cart weight 2 outranks unknown weight 1.
	if !strings.HasPrefix(got, "Primary interests: scarf, hat.") {
		t.Errorf("unexpected summary: %q", got)
	}
}

func TestInterestSummary_NoEvents(t *testing.T) {
	got := interestSummary(nil)
	want := "No specific behavioral interests calculated."
	if got != want {
		t.Errorf("interestSummary(nil) = %q, want %q", got, want)
	}
}

func TestInterestSummary_TiesKeepFirstSeenOrder(t *testing.T) {
	events := []Event{
		{Type: "view", Product: "socks", Color: "red"},
		{Type: "view", Product: "shoes", Color: "blue"},
	}
	got := interestSummary(events)
	want := "Primary interests: socks, shoes. Preferred colors: red, blue."
	if got != want {
		t.Errorf("interestSummary = %q, want %q", got, want)
	}
}

func TestBuildProfile_Description(t *testing.T) {
	c := Customer{
		ID: 7, FirstName: "Anna", LastName: "Kowalska", Email: "anna@example.com",
		Country: "PL", Age: 34, TotalSpent: 120.5, FavoriteColor: "blue",
	}
	p := BuildProfile(c, nil)
	want := "Customer Anna Kowalska (anna@example.com) from PL, age 34, favorite color blue. " +
		"Total spent: 120.5. No specific behavioral interests calculated."
	if p.Description != want {
		t.Errorf("description = %q, want %q", p.Description, want)
	}
	if p.LikesLuxury {
		t.Error("120.5 spend should not be tagged luxury")
	}
}

func TestBuildProfile_LuxuryTag(t *testing.T) {
	p := BuildProfile(Customer{ID: 1, TotalSpent: 800.01}, nil)
	if !p.LikesLuxury {
		t.Error("spend above 800 should be tagged luxury")
	}
	if !strings.HasSuffix(p.Description, " This customer likes luxury items.") {
		t.Errorf("description missing luxury sentence: %q", p.Description)
	}

	edge := BuildProfile(Customer{ID: 2, TotalSpent: 800}, nil)
	if edge.LikesLuxury {
		t.Error("spend of exactly 800 should not be tagged luxury")
	}
}

func TestProfilePayload(t *testing.T) {
	c := Customer{
		ID: 7, FirstName: "Anna", LastName: "Kowalska", Email: "anna@example.com",
		Country: "PL", Age: 34, TotalSpent: 900, FavoriteColor: "blue", CreatedAt: "2024-01-02 10:00:00",
	}
	p := BuildProfile(c, []Event{{Type: "purchase", Product: "jacket", Color: "black"}})
	payload := p.Payload()

	if payload["customer_id"] != int64(7) {
		t.Errorf("customer_id = %v", payload["customer_id"])
	}
	if payload["text"] != p.Description {
		t.Error("text should carry the description")
	}

	meta, ok := payload["metadata"].(map[string]any)
	if !ok {
		t.Fatal("metadata should be a nested map")
	}
	if meta["customer_id"] != int64(7) {
		t.Errorf("metadata.customer_id = %v", meta["customer_id"])
	}
	if meta["country"] != "PL" {
		t.Errorf("metadata.country = %v", meta["country"])
	}
	if meta["likes_luxury"] != true {
		t.Errorf("metadata.likes_luxury = %v", meta["likes_luxury"])
	}
	if meta["calculated_interests"] != p.Interests {
		t.Error("metadata.calculated_interests should carry the summary")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCustomers(t *testing.T) {
	path := writeFile(t, "crm.csv",
		"customer_id,first_name,last_name,email,country,age,total_spent,favorite_color,created_at\n"+
			"1,Anna,Kowalska,anna@example.com,PL,34,120.50,blue,2024-01-02 10:00:00\n"+
			"2,Max,Muster,max@example.com,DE,51,950.00,red,2024-02-03 11:00:00\n")

	customers, err := LoadCustomers(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(customers))
	}
	if customers[0].ID != 1 || customers[0].Country != "PL" || customers[0].TotalSpent != 120.5 {
		t.Errorf("unexpected first customer: %+v", customers[0])
	}
	if customers[1].Age != 51 {
		t.Errorf("age = %d, want 51", customers[1].Age)
	}
}

func TestLoadCustomers_HeaderMismatch(t *testing.T) {
	path := writeFile(t, "crm.csv", "id,name\n1,Anna\n")
	if _, err := LoadCustomers(path); err == nil {
		t.Error("expected error for wrong header")
	}
}

func TestLoadCustomers_BadNumeric(t *testing.T) {
	path := writeFile(t, "crm.csv",
		"customer_id,first_name,last_name,email,country,age,total_spent,favorite_color,created_at\n"+
			"1,Anna,Kowalska,anna@example.com,PL,thirty,120.50,blue,2024-01-02 10:00:00\n")
	if _, err := LoadCustomers(path); err == nil {
		t.Error("expected error for non-numeric age")
	}
}

func TestLoadEvents(t *testing.T) {
	path := writeFile(t, "events.csv",
		"customer_id,event_type,product,color,event_timestamp\n"+
			"1,purchase,socks,red,2024-03-01 09:00:00\n")

	events, err := LoadEvents(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].CustomerID != 1 || events[0].Type != "purchase" || events[0].Product != "socks" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestLoadEvents_MissingFile(t *testing.T) {
	if _, err := LoadEvents(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
