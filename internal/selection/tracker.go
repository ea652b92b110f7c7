// Package selection tracks the resolved company/ticker the user is viewing.
package selection

import (
	"strings"

	"stockcast/internal/domain"
	"stockcast/pkg/stockcast"
)

// Source records which rule produced a submit decision.
type Source int

const (
	FromSuggestion Source = iota + 1
	FromTracked
	FromRawText
)

func (s Source) String() string {
	switch s {
	case FromSuggestion:
		return "suggestion"
	case FromTracked:
		return "tracked"
	case FromRawText:
		return "raw_text"
	default:
		return "none"
	}
}

// Decision is the outcome of a submit.
type Decision struct {
	Selection domain.Selection
	Source    Source
}

// Tracker holds at most one confirmed selection.
type Tracker struct {
	current domain.Selection
}

// Confirm replaces the tracked selection with c.
func (t *Tracker) Confirm(c stockcast.Candidate) domain.Selection {
	t.current = domain.Selection{Name: c.Name, Ticker: c.Ticker}
	return t.current
}

// Current returns the tracked selection and whether one exists.
func (t *Tracker) Current() (domain.Selection, bool) {
	return t.current, !t.current.IsZero()
}

// Submit resolves an explicit submit. In order of precedence: the
// highlighted candidate of an open list, then the tracked selection, then the
// trimmed raw text as both name and ticker. With none of these, ok is false
// and nothing changes.
func (t *Tracker) Submit(highlighted stockcast.Candidate, open bool, raw string) (Decision, bool) {
	if open && highlighted.Ticker != "" {
		return Decision{Selection: t.Confirm(highlighted), Source: FromSuggestion}, true
	}
	if sel, ok := t.Current(); ok {
		return Decision{Selection: sel, Source: FromTracked}, true
	}
	if text := strings.TrimSpace(raw); text != "" {
		t.current = domain.Selection{Name: text, Ticker: text}
		return Decision{Selection: t.current, Source: FromRawText}, true
	}
	return Decision{}, false
}
