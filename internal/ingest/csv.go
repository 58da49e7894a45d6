package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

var customerColumns = []string{"customer_id", "first_name", "last_name", "email", "country", "age", "total_spent", "favorite_color", "created_at"}

var eventColumns = []string{"customer_id", "event_type", "product", "color", "event_timestamp"}

// LoadCustomers reads a CRM export. The header row must match the expected
// column order exactly.
func LoadCustomers(path string) ([]Customer, error) {
	rows, err := readCSV(path, customerColumns)
	if err != nil {
		return nil, err
	}

	customers := make([]Customer, 0, len(rows))
	for i, rec := range rows {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad customer_id %q", path, i+2, rec[0])
		}
		age, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad age %q", path, i+2, rec[5])
		}
		spent, err := strconv.ParseFloat(rec[6], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad total_spent %q", path, i+2, rec[6])
		}
		customers = append(customers, Customer{
			ID:            id,
			FirstName:     rec[1],
			LastName:      rec[2],
			Email:         rec[3],
			Country:       rec[4],
			Age:           age,
			TotalSpent:    spent,
			FavoriteColor: rec[7],
			CreatedAt:     rec[8],
		})
	}
	return customers, nil
}

// LoadEvents reads a clickstream export.
func LoadEvents(path string) ([]Event, error) {
	rows, err := readCSV(path, eventColumns)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(rows))
	for i, rec := range rows {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad customer_id %q", path, i+2, rec[0])
		}
		events = append(events, Event{
			CustomerID: id,
			Type:       rec[1],
			Product:    rec[2],
			Color:      rec[3],
			Timestamp:  rec[4],
		})
	}
	return events, nil
}

func readCSV(path string, columns []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(columns)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	for i, want := range columns {
		if header[i] != want {
			return nil, fmt.Errorf("%s: column %d is %q, want %q", path, i, header[i], want)
		}
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
