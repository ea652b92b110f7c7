package predict

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"stockcast/internal/domain"
	"stockcast/internal/view"
	"stockcast/pkg/stockcast"
)

type nopInstance struct{}

func (nopInstance) Draw(int, int) string { return "" }
func (nopInstance) Destroy()             {}

type nopRenderer struct{}

func (nopRenderer) Render(view.ChartSpec) view.Instance { return nopInstance{} }

// scriptedFetcher answers by ticker and records every request.
type scriptedFetcher struct {
	requests []stockcast.PredictRequest
	results  map[string]*stockcast.PredictionResult
	errs     map[string]error
}

func (f *scriptedFetcher) Predict(_ context.Context, req stockcast.PredictRequest) (*stockcast.PredictionResult, error) {
	f.requests = append(f.requests, req)
	if err := f.errs[req.Ticker]; err != nil {
		return nil, err
	}
	return f.results[req.Ticker], nil
}

type staleCounter struct{ n int }

func (s *staleCounter) StaleDiscarded() { s.n++ }

func fp(v float64) *float64 { return &v }

func result(name, ticker string) *stockcast.PredictionResult {
	return &stockcast.PredictionResult{
		CompanyName:      name,
		Ticker:           ticker,
		HistoricalDates:  []string{"2024-01-01", "2024-01-02"},
		HistoricalPrices: []*float64{fp(1), fp(2)},
		PredictedDates:   []string{"2024-01-03"},
		PredictedPrices:  []*float64{fp(3)},
	}
}

func newFixture() (*Orchestrator, *scriptedFetcher, *staleCounter) {
	f := &scriptedFetcher{
		results: map[string]*stockcast.PredictionResult{
			"ACME": result("Acme Corp", "ACME"),
			"MSFT": result("Microsoft Corporation", "MSFT"),
		},
		errs: map[string]error{},
	}
	stale := &staleCounter{}
	return New(f, view.NewPanel(nopRenderer{}), WithStaleObserver(stale)), f, stale
}

func run(t *testing.T, cmd tea.Cmd) ResultMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected command")
	}
	return cmd().(ResultMsg)
}

func TestRequestSuccess(t *testing.T) {
	o, f, _ := newFixture()
	sel := domain.Selection{Name: "Acme Corp", Ticker: "ACME"}

	cmd, err := o.Request(sel, 30)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	p := o.Panel()
	if p.Title != "Loading prediction for Acme Corp..." || !p.Loading || !o.Loading() {
		t.Errorf("panel = %+v, want loading", p)
	}

	if got := o.Handle(run(t, cmd)); got != Applied {
		t.Fatalf("Handle() = %v, want applied", got)
	}
	if f.requests[0].Ticker != "ACME" || f.requests[0].PredictionDays != 30 {
		t.Errorf("request = %+v", f.requests[0])
	}
	if p.Title != "Stock Analysis for Acme Corp" || p.Loading || o.Loading() {
		t.Errorf("panel = %+v, want ready", p)
	}
	if p.Error != "" {
		t.Errorf("Error = %q, want empty", p.Error)
	}
}

func TestRequestRejectsInvalid(t *testing.T) {
	o, f, _ := newFixture()

	_, err := o.Request(domain.Selection{}, 30)
	var uie *domain.UserInputError
	if !errors.As(err, &uie) {
		t.Errorf("error = %v, want *UserInputError", err)
	}
	_, err = o.Request(domain.Selection{Ticker: "ACME"}, 0)
	if !errors.As(err, &uie) {
		t.Errorf("error = %v, want *UserInputError", err)
	}
	if o.Active() != 0 || o.Panel().Phase != view.Idle || len(f.requests) != 0 {
		t.Error("expected invalid request to change nothing")
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	o, _, stale := newFixture()

	first, _ := o.Request(domain.Selection{Name: "Acme Corp", Ticker: "ACME"}, 30)
	second, _ := o.Request(domain.Selection{Name: "Microsoft Corporation", Ticker: "MSFT"}, 30)

	msgA := run(t, first)
	msgB := run(t, second)

	// Newest resolves first, then the older one arrives.
	if got := o.Handle(msgB); got != Applied {
		t.Fatalf("Handle(B) = %v, want applied", got)
	}
	if got := o.Handle(msgA); got != Discarded {
		t.Fatalf("Handle(A) = %v, want discarded", got)
	}
	p := o.Panel()
	if p.Title != "Stock Analysis for Microsoft Corporation" {
		t.Errorf("Title = %q, want MSFT result", p.Title)
	}
	if p.Loading {
		t.Error("expected loading off")
	}
	if stale.n != 1 {
		t.Errorf("stale = %d, want 1", stale.n)
	}
}

func TestStaleBeforeActiveKeepsLoading(t *testing.T) {
	o, _, _ := newFixture()

	first, _ := o.Request(domain.Selection{Ticker: "ACME"}, 30)
	second, _ := o.Request(domain.Selection{Ticker: "MSFT"}, 30)

	o.Handle(run(t, first))
	if !o.Panel().Loading || o.Panel().Phase != view.Loading {
		t.Error("expected panel still loading while active request is in flight")
	}
	o.Handle(run(t, second))
	if o.Panel().Loading {
		t.Error("expected loading off after active response")
	}
}

func TestDuplicateResponseIgnored(t *testing.T) {
	o, _, stale := newFixture()

	cmd, _ := o.Request(domain.Selection{Ticker: "ACME"}, 30)
	msg := run(t, cmd)
	o.Handle(msg)
	before := *o.Panel()

	if got := o.Handle(msg); got != Discarded {
		t.Errorf("Handle(dup) = %v, want discarded", got)
	}
	if o.Panel().Title != before.Title || o.Panel().Phase != before.Phase {
		t.Error("expected duplicate to leave the panel unchanged")
	}
	if stale.n != 0 {
		t.Errorf("stale = %d, want 0 for duplicate", stale.n)
	}
}

func TestServiceErrorShowsServerMessage(t *testing.T) {
	o, f, _ := newFixture()
	f.errs["NOPE"] = &stockcast.ServiceError{
		Endpoint: stockcast.EndpointPredict,
		Status:   404,
		Message:  "Could not fetch data for NOPE.",
	}

	cmd, _ := o.Request(domain.Selection{Ticker: "NOPE"}, 30)
	if got := o.Handle(run(t, cmd)); got != Failed {
		t.Fatalf("Handle() = %v, want failed", got)
	}
	p := o.Panel()
	if p.Title != TitleFailed || p.Error != "Error: Could not fetch data for NOPE." {
		t.Errorf("panel = %q / %q", p.Title, p.Error)
	}
	if p.Stats != nil || p.Loading || p.Price.Active() {
		t.Error("expected stats hidden, loading off and charts cleared")
	}
}

func TestApplicationErrorSurfacesLikeServiceError(t *testing.T) {
	o, f, _ := newFixture()
	f.errs["ZZZ"] = &stockcast.ApplicationError{Message: stockcast.ErrEmptyResponse}

	cmd, _ := o.Request(domain.Selection{Ticker: "ZZZ"}, 7)
	o.Handle(run(t, cmd))
	p := o.Panel()
	if p.Title != TitleFailed || p.Error != "Error: Received empty response from server." {
		t.Errorf("panel = %q / %q", p.Title, p.Error)
	}
}

func TestStructuralErrorShowsDisplayError(t *testing.T) {
	o, f, _ := newFixture()
	f.results["BAD"] = &stockcast.PredictionResult{Ticker: "BAD"}

	cmd, _ := o.Request(domain.Selection{Ticker: "BAD"}, 30)
	o.Handle(run(t, cmd))
	p := o.Panel()
	if p.Title != TitleDisplayError || p.Error != MessageInvalidLayout {
		t.Errorf("panel = %q / %q", p.Title, p.Error)
	}
	if p.Loading || p.Stats != nil {
		t.Error("expected loading off and stats hidden")
	}
}
