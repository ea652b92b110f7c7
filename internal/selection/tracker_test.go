package selection

import (
	"testing"

	"stockcast/pkg/stockcast"
)

func TestConfirmReplaces(t *testing.T) {
	var tr Tracker
	if _, ok := tr.Current(); ok {
		t.Fatal("expected no selection initially")
	}

	tr.Confirm(stockcast.Candidate{Name: "Apple Inc.", Ticker: "AAPL"})
	tr.Confirm(stockcast.Candidate{Name: "Tesla, Inc.", Ticker: "TSLA"})

	sel, ok := tr.Current()
	if !ok || sel.Ticker != "TSLA" || sel.Name != "Tesla, Inc." {
		t.Errorf("Current() = %+v, %v; want TSLA", sel, ok)
	}
}

func TestSubmitPrecedence(t *testing.T) {
	top := stockcast.Candidate{Name: "Microsoft Corporation", Ticker: "MSFT"}

	var tr Tracker
	tr.Confirm(stockcast.Candidate{Name: "Apple Inc.", Ticker: "AAPL"})

	// An open list's highlight wins over the tracked selection.
	d, ok := tr.Submit(top, true, "micro")
	if !ok || d.Source != FromSuggestion || d.Selection.Ticker != "MSFT" {
		t.Fatalf("Submit() = %+v, %v; want MSFT from suggestion", d, ok)
	}
	if sel, _ := tr.Current(); sel.Ticker != "MSFT" {
		t.Errorf("tracked = %q, want MSFT", sel.Ticker)
	}

	d, ok = tr.Submit(stockcast.Candidate{}, false, "whatever")
	if !ok || d.Source != FromTracked || d.Selection.Ticker != "MSFT" {
		t.Errorf("Submit() = %+v, %v; want tracked MSFT", d, ok)
	}
}

func TestSubmitRawText(t *testing.T) {
	var tr Tracker
	d, ok := tr.Submit(stockcast.Candidate{}, false, "  nvda ")
	if !ok || d.Source != FromRawText {
		t.Fatalf("Submit() = %+v, %v; want raw text", d, ok)
	}
	if d.Selection.Name != "nvda" || d.Selection.Ticker != "nvda" {
		t.Errorf("Selection = %+v, want nvda/nvda", d.Selection)
	}
	if sel, ok := tr.Current(); !ok || sel.Ticker != "nvda" {
		t.Errorf("Current() = %+v, %v; want raw text tracked", sel, ok)
	}
}

func TestSubmitEmptyIsNoop(t *testing.T) {
	var tr Tracker
	if d, ok := tr.Submit(stockcast.Candidate{}, false, "   "); ok {
		t.Errorf("Submit() = %+v, want no decision", d)
	}
	if _, ok := tr.Current(); ok {
		t.Error("expected tracker to stay empty")
	}
}

func TestSourceString(t *testing.T) {
	if FromRawText.String() != "raw_text" {
		t.Errorf("String() = %q, want raw_text", FromRawText.String())
	}
}
