// Package httpapi serves the watcher's latest forecasts, lookup history and
// exported series as JSON.
package httpapi

import (
	"time"

	"stockcast/internal/store"
	"stockcast/internal/view"
	"stockcast/internal/watch"
)

// StatsJSON is the JSON form of the latest-session stats block.
type StatsJSON struct {
	Date      string `json:"date"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
	SourceURL string `json:"sourceUrl"`
}

// ForecastJSON is the JSON form of a watcher snapshot.
type ForecastJSON struct {
	Ticker        string     `json:"ticker"`
	Horizon       int        `json:"horizon"`
	Phase         string     `json:"phase"`
	Title         string     `json:"title"`
	Error         string     `json:"error,omitempty"`
	Accuracy      string     `json:"accuracy,omitempty"`
	FitPercentage float64    `json:"fitPercentage"`
	LastClose     *float64   `json:"lastClose,omitempty"`
	LastPredicted *float64   `json:"lastPredicted,omitempty"`
	Stats         *StatsJSON `json:"stats,omitempty"`
	UpdatedAt     int64      `json:"updatedAt"` // unix millis
}

// LatestResponse is the body of GET /api/latest.
type LatestResponse struct {
	Forecasts []ForecastJSON `json:"forecasts"`
}

// LookupJSON is one recorded lookup.
type LookupJSON struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"name"`
	Horizon       int      `json:"horizon"`
	FitPercentage float64  `json:"fitPercentage"`
	LastClose     *float64 `json:"lastClose,omitempty"`
	LastPredicted *float64 `json:"lastPredicted,omitempty"`
	CreatedAt     int64    `json:"createdAt"`
}

// HistoryResponse is the body of GET /api/history.
type HistoryResponse struct {
	Ticker  string       `json:"ticker,omitempty"`
	Lookups []LookupJSON `json:"lookups"`
}

// ExportsResponse lists the export files for a ticker.
type ExportsResponse struct {
	Ticker string   `json:"ticker"`
	Files  []string `json:"files"`
}

// SeriesPointJSON is one row of an exported series.
type SeriesPointJSON struct {
	Date      string   `json:"date"`
	Kind      string   `json:"kind"`
	Close     *float64 `json:"close,omitempty"`
	SMAShort  *float64 `json:"smaShort,omitempty"`
	SMALong   *float64 `json:"smaLong,omitempty"`
	Predicted *float64 `json:"predicted,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
}

// SeriesResponse is the body of GET /api/exports/{ticker}/{file}.
type SeriesResponse struct {
	Ticker  string            `json:"ticker"`
	File    string            `json:"file"`
	Horizon int               `json:"horizon"`
	Points  []SeriesPointJSON `json:"points"`
}

// WatchlistResponse is the body of GET /api/watchlist.
type WatchlistResponse struct {
	Symbols []string `json:"symbols"`
}

func convertSnapshot(s watch.Snapshot) ForecastJSON {
	return ForecastJSON{
		Ticker:        s.Ticker,
		Horizon:       s.Horizon,
		Phase:         s.Phase,
		Title:         s.Title,
		Error:         s.Error,
		Accuracy:      s.Accuracy,
		FitPercentage: s.FitPercentage,
		LastClose:     s.LastClose,
		LastPredicted: s.LastPredicted,
		Stats:         convertStats(s.Stats),
		UpdatedAt:     s.UpdatedAt.UnixMilli(),
	}
}

func convertStats(s *view.Stats) *StatsJSON {
	if s == nil {
		return nil
	}
	return &StatsJSON{
		Date:      s.Date,
		Open:      s.Open,
		High:      s.High,
		Low:       s.Low,
		Close:     s.Close,
		Volume:    s.Volume,
		SourceURL: s.SourceURL,
	}
}

func convertLookup(l store.Lookup) LookupJSON {
	return LookupJSON{
		Ticker:        l.Ticker,
		Name:          l.Name,
		Horizon:       l.Horizon,
		FitPercentage: l.FitPercentage,
		LastClose:     l.LastClose,
		LastPredicted: l.LastPredicted,
		CreatedAt:     millis(l.CreatedAt),
	}
}

func convertSeries(records []store.SeriesRecord) []SeriesPointJSON {
	out := make([]SeriesPointJSON, 0, len(records))
	for _, r := range records {
		out = append(out, SeriesPointJSON{
			Date:      r.Date,
			Kind:      r.Kind,
			Close:     r.Close,
			SMAShort:  r.SMAShort,
			SMALong:   r.SMALong,
			Predicted: r.Predicted,
			Volume:    r.Volume,
		})
	}
	return out
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
