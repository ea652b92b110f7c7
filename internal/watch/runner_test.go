package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stockcast/internal/domain"
	"stockcast/internal/store"
	"stockcast/pkg/stockcast"
)

type fakeFetcher struct {
	calls int
}

func fp(v float64) *float64 { return &v }

func (f *fakeFetcher) Predict(_ context.Context, req stockcast.PredictRequest) (*stockcast.PredictionResult, error) {
	f.calls++
	if req.Ticker == "NOPE" {
		return nil, &stockcast.ApplicationError{Message: "Could not fetch data for NOPE."}
	}
	return &stockcast.PredictionResult{
		CompanyName:        req.Ticker + " Inc.",
		Ticker:             req.Ticker,
		HistoricalDates:    []string{"2024-01-01"},
		HistoricalPrices:   []*float64{fp(10)},
		PredictedDates:     []string{"2024-01-02"},
		PredictedPrices:    []*float64{fp(float64(req.PredictionDays))},
		ModelFitPercentage: 55,
	}, nil
}

type memoryStore struct {
	store.NoopStore
	lookups []store.Lookup
}

func (m *memoryStore) RecordLookup(_ context.Context, l store.Lookup) error {
	m.lookups = append(m.lookups, l)
	return nil
}

type forecasts map[string]float64

func (f forecasts) RecordForecast(ticker string, last, _ float64) { f[ticker] = last }

func TestRunOnce(t *testing.T) {
	f := &fakeFetcher{}
	hist := &memoryStore{}
	obs := forecasts{}
	r := NewRunner(f, []Target{{Ticker: "msft", Horizon: 30}, {Ticker: "AAPL", Horizon: 7}, {Ticker: "NOPE", Horizon: 30}},
		WithStore(hist), WithForecastObserver(obs))

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}

	latest := r.Latest()
	if len(latest) != 3 || latest[0].Ticker != "AAPL" || latest[1].Ticker != "MSFT" {
		t.Fatalf("Latest() = %+v", latest)
	}

	msft, ok := r.LatestFor("msft")
	if !ok {
		t.Fatal("expected MSFT snapshot")
	}
	if msft.Title != "Stock Analysis for MSFT Inc." || msft.Phase != "ready" {
		t.Errorf("MSFT snapshot = %+v", msft)
	}
	if msft.LastPredicted == nil || *msft.LastPredicted != 30 {
		t.Errorf("LastPredicted = %v, want 30", msft.LastPredicted)
	}

	nope, _ := r.LatestFor("NOPE")
	if nope.Phase != "failed" || nope.Error != "Error: Could not fetch data for NOPE." {
		t.Errorf("NOPE snapshot = %+v", nope)
	}

	if len(hist.lookups) != 2 {
		t.Errorf("recorded = %d, want 2", len(hist.lookups))
	}
	if obs["AAPL"] != 7 {
		t.Errorf("forecast AAPL = %v, want 7", obs["AAPL"])
	}
}

func TestRunOnceExports(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(&fakeFetcher{}, []Target{{Ticker: "ACME", Horizon: 7}}, WithExporter(store.NewParquetExporter(dir)))
	r.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	recs, err := store.ReadSeries(filepath.Join(dir, "ACME", "2024-03-01-7d.parquet"))
	if err != nil {
		t.Fatalf("ReadSeries() error = %v", err)
	}
	if len(recs) != 2 || recs[1].Kind != store.KindPredicted {
		t.Errorf("records = %+v", recs)
	}
}

func TestRunOnceReusesPipeline(t *testing.T) {
	r := NewRunner(&fakeFetcher{}, []Target{{Ticker: "ACME", Horizon: domain.DefaultHorizon}})
	r.RunOnce(context.Background())
	r.RunOnce(context.Background())

	if len(r.pipelines) != 1 {
		t.Errorf("pipelines = %d, want 1", len(r.pipelines))
	}
	if got := r.pipelines["ACME"].Active(); got != 2 {
		t.Errorf("epoch = %d, want 2", got)
	}
}

func TestRunOnceCancelled(t *testing.T) {
	f := &fakeFetcher{}
	r := NewRunner(f, []Target{{Ticker: "ACME", Horizon: 30}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.RunOnce(ctx); err == nil {
		t.Error("expected context error")
	}
	if f.calls != 0 {
		t.Errorf("calls = %d, want 0", f.calls)
	}
}

func TestSchedule(t *testing.T) {
	r := NewRunner(&fakeFetcher{}, nil)
	if err := r.Schedule("*/5 * * * *"); err != nil {
		t.Errorf("Schedule() error = %v", err)
	}
	if err := r.Schedule("not a spec"); err == nil {
		t.Error("expected error for invalid spec")
	}
}

func TestInvalidTargetSkipped(t *testing.T) {
	f := &fakeFetcher{}
	r := NewRunner(f, []Target{{Ticker: "ACME", Horizon: 0}})
	r.RunOnce(context.Background())
	if f.calls != 0 || len(r.Latest()) != 0 {
		t.Errorf("calls = %d, latest = %d; want skipped", f.calls, len(r.Latest()))
	}
}
