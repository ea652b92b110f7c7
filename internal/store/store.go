// Package store persists lookup history and exports displayed projections.
package store

import (
	"context"
	"strings"
	"time"

	"stockcast/pkg/stockcast"
)

// Lookup is one successfully displayed prediction.
type Lookup struct {
	Ticker        string
	Name          string
	Horizon       int
	FitPercentage float64
	LastClose     *float64
	LastPredicted *float64
	CreatedAt     time.Time
}

// NewLookup summarises r as requested over horizon periods. The ticker is
// stored upper-cased so history filters match whatever case was typed.
func NewLookup(r *stockcast.PredictionResult, horizon int, at time.Time) Lookup {
	l := Lookup{
		Ticker:        strings.ToUpper(strings.TrimSpace(r.Ticker)),
		Name:          r.DisplayName(),
		Horizon:       horizon,
		FitPercentage: r.ModelFitPercentage,
		CreatedAt:     at,
	}
	if v, ok := r.LastClose(); ok {
		l.LastClose = &v
	}
	if v, ok := r.LastPredicted(); ok {
		l.LastPredicted = &v
	}
	return l
}

// LookupStore records and lists lookup history.
type LookupStore interface {
	// RecordLookup appends a lookup to the history.
	RecordLookup(ctx context.Context, l Lookup) error

	// RecentLookups returns up to limit lookups, newest first. An empty
	// ticker matches every ticker.
	RecentLookups(ctx context.Context, ticker string, limit int) ([]Lookup, error)

	// Close releases the underlying resources.
	Close() error
}

// Open returns a SQLite store at path, or a NoopStore when path is empty.
func Open(path string) (LookupStore, error) {
	if path == "" {
		return NoopStore{}, nil
	}
	s, err := NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
