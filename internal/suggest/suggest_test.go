package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockcast/pkg/stockcast"
)

type fakeLookup struct {
	calls   []string
	results []stockcast.Candidate
	err     error
}

func (f *fakeLookup) Suggest(_ context.Context, query string) ([]stockcast.Candidate, error) {
	f.calls = append(f.calls, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type hitCounter struct{ n int }

func (h *hitCounter) CacheHit() { h.n++ }

var acme = []stockcast.Candidate{
	{Name: "Acme Corp", Ticker: "ACME"},
	{Name: "Acme Holdings", Ticker: "ACMH"},
}

func TestCommandTagsToken(t *testing.T) {
	lookup := &fakeLookup{results: acme}
	r := NewResolver(lookup)

	msg := r.Command(7, "acme")().(ResultMsg)
	if msg.Token != 7 || msg.Query != "acme" {
		t.Errorf("msg = %+v, want token 7 query acme", msg)
	}
	if msg.Err != nil {
		t.Fatalf("Err = %v", msg.Err)
	}
	if len(msg.Candidates) != 2 || msg.Candidates[0].Ticker != "ACME" {
		t.Errorf("Candidates = %v, want server order", msg.Candidates)
	}
}

func TestResolveFailurePassesThrough(t *testing.T) {
	want := &stockcast.ServiceError{Endpoint: stockcast.EndpointSuggest, Status: 502}
	r := NewResolver(&fakeLookup{err: want})

	_, err := r.Resolve(context.Background(), "x")
	var se *stockcast.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *ServiceError", err)
	}
}

func TestResolveCachesByNormalizedQuery(t *testing.T) {
	lookup := &fakeLookup{results: acme}
	hits := &hitCounter{}
	r := NewResolver(lookup, WithCacheTTL(time.Minute), WithCacheObserver(hits))

	for _, q := range []string{"Acme", "acme", " ACME "} {
		if _, err := r.Resolve(context.Background(), q); err != nil {
			t.Fatalf("Resolve(%q) error = %v", q, err)
		}
	}
	if len(lookup.calls) != 1 {
		t.Errorf("lookups = %d, want 1", len(lookup.calls))
	}
	if hits.n != 2 {
		t.Errorf("cache hits = %d, want 2", hits.n)
	}
}

func TestCacheExpires(t *testing.T) {
	lookup := &fakeLookup{results: acme}
	r := NewResolver(lookup, WithCacheTTL(time.Minute))
	now := time.Now()
	r.cache.now = func() time.Time { return now }

	r.Resolve(context.Background(), "acme")
	now = now.Add(2 * time.Minute)
	r.Resolve(context.Background(), "acme")

	if len(lookup.calls) != 2 {
		t.Errorf("lookups = %d, want 2 after expiry", len(lookup.calls))
	}
}

func TestFailuresNotCached(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("down")}
	r := NewResolver(lookup, WithCacheTTL(time.Minute))

	r.Resolve(context.Background(), "acme")
	r.Resolve(context.Background(), "acme")
	if len(lookup.calls) != 2 {
		t.Errorf("lookups = %d, want 2", len(lookup.calls))
	}
}

func TestListShowAndHighlight(t *testing.T) {
	var l List
	if l.Visible() {
		t.Error("expected zero-value list to be hidden")
	}
	if _, ok := l.Highlighted(); ok {
		t.Error("expected no highlight while hidden")
	}

	l.Show(acme)
	c, ok := l.Highlighted()
	if !ok || c.Ticker != "ACME" {
		t.Errorf("Highlighted() = %v, %v; want top suggestion", c, ok)
	}

	l.Move(1)
	l.Move(5)
	if l.Highlight() != 1 {
		t.Errorf("Highlight() = %d, want 1 after clamping", l.Highlight())
	}
	l.Move(-9)
	if l.Highlight() != 0 {
		t.Errorf("Highlight() = %d, want 0 after clamping", l.Highlight())
	}
}

func TestListEmptyHides(t *testing.T) {
	var l List
	l.Show(acme)
	l.Show(nil)
	if l.Status() != Hidden {
		t.Errorf("Status() = %v, want Hidden", l.Status())
	}
}

func TestListFailShowsUnavailable(t *testing.T) {
	var l List
	l.Show(acme)
	l.Fail()
	if l.Status() != Unavailable || !l.Visible() {
		t.Errorf("Status() = %v, want visible Unavailable", l.Status())
	}
	if l.Open() {
		t.Error("expected failed list to have nothing to choose")
	}
	if _, ok := l.At(0); ok {
		t.Error("expected At to fail on unavailable list")
	}
}
