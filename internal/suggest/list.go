package suggest

import "stockcast/pkg/stockcast"

// Status is the visibility state of the suggestion list.
type Status int

const (
	Hidden Status = iota
	Shown
	Unavailable
)

// UnavailableText is displayed in place of candidates when a lookup fails.
const UnavailableText = "Could not load suggestions"

// List is the dropdown beneath the input. Highlight indexes the candidate
// that Enter would choose; it starts at the top suggestion.
type List struct {
	status     Status
	candidates []stockcast.Candidate
	highlight  int
}

// Show replaces the candidates. An empty result hides the list.
func (l *List) Show(candidates []stockcast.Candidate) {
	if len(candidates) == 0 {
		l.Clear()
		return
	}
	l.status = Shown
	l.candidates = candidates
	l.highlight = 0
}

// Fail marks the lookup as failed so the list shows UnavailableText.
func (l *List) Fail() {
	l.status = Unavailable
	l.candidates = nil
	l.highlight = 0
}

// Clear hides the list and drops its candidates.
func (l *List) Clear() {
	l.status = Hidden
	l.candidates = nil
	l.highlight = 0
}

// Status returns the current state.
func (l *List) Status() Status { return l.status }

// Visible reports whether anything is drawn below the input.
func (l *List) Visible() bool { return l.status != Hidden }

// Open reports whether there are candidates to choose from.
func (l *List) Open() bool { return l.status == Shown && len(l.candidates) > 0 }

// Candidates returns the shown candidates.
func (l *List) Candidates() []stockcast.Candidate { return l.candidates }

// Highlight returns the highlighted row.
func (l *List) Highlight() int { return l.highlight }

// Move shifts the highlight by delta, clamped to the list.
func (l *List) Move(delta int) {
	if !l.Open() {
		return
	}
	l.highlight += delta
	if l.highlight < 0 {
		l.highlight = 0
	}
	if last := len(l.candidates) - 1; l.highlight > last {
		l.highlight = last
	}
}

// Highlighted returns the highlighted candidate while the list is open.
func (l *List) Highlighted() (stockcast.Candidate, bool) {
	return l.At(l.highlight)
}

// At returns row i while the list is open.
func (l *List) At(i int) (stockcast.Candidate, bool) {
	if !l.Open() || i < 0 || i >= len(l.candidates) {
		return stockcast.Candidate{}, false
	}
	return l.candidates[i], true
}
