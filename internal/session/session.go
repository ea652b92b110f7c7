// Package session composes the query pipeline into one owned state object:
// input text, suggestion list, tracked selection, horizon and results panel.
//
// All mutation happens in Update and the user-action methods, which are
// called from the bubbletea update loop. Network work runs in the returned
// commands and reports back through messages.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockcast/internal/debounce"
	"stockcast/internal/domain"
	"stockcast/internal/predict"
	"stockcast/internal/selection"
	"stockcast/internal/store"
	"stockcast/internal/suggest"
	"stockcast/internal/view"
)

// RecordedMsg reports the outcome of writing a lookup to history.
type RecordedMsg struct {
	Lookup store.Lookup
	Err    error
}

// Option configures a Session.
type Option func(*Session)

// WithHorizon sets the initial horizon.
func WithHorizon(h domain.Horizon) Option {
	return func(s *Session) { s.horizon = h }
}

// WithRecorder records every displayed prediction.
func WithRecorder(r store.LookupStore) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLogger sets the session logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// Session is the pipeline state.
type Session struct {
	input     string
	horizon   domain.Horizon
	debouncer *debounce.Debouncer
	resolver  *suggest.Resolver
	list      suggest.List
	tracker   selection.Tracker
	orch      *predict.Orchestrator
	recorder  store.LookupStore
	log       *slog.Logger
	now       func() time.Time
}

// New creates a Session from its components.
func New(d *debounce.Debouncer, r *suggest.Resolver, o *predict.Orchestrator, opts ...Option) *Session {
	s := &Session{
		horizon:   domain.DefaultHorizon,
		debouncer: d,
		resolver:  r,
		orch:      o,
		recorder:  store.NoopStore{},
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Input() string                       { return s.input }
func (s *Session) Horizon() domain.Horizon             { return s.horizon }
func (s *Session) List() *suggest.List                 { return &s.list }
func (s *Session) Panel() *view.Panel                  { return s.orch.Panel() }
func (s *Session) Selection() (domain.Selection, bool) { return s.tracker.Current() }
func (s *Session) Orchestrator() *predict.Orchestrator { return s.orch }

// SetInput records edited input text and schedules a suggestion lookup.
// Blank text hides the list without a lookup.
func (s *Session) SetInput(text string) tea.Cmd {
	s.input = text
	cmd := s.debouncer.Notify(text)
	if cmd == nil {
		s.list.Clear()
	}
	return cmd
}

// Update handles pipeline messages.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case debounce.FiredMsg:
		if !s.debouncer.Due(msg) {
			return nil
		}
		return s.resolver.Command(msg.Token, msg.Query)

	case suggest.ResultMsg:
		if msg.Token != s.debouncer.Token() {
			s.log.Debug("stale suggestions dropped", "query", msg.Query)
			return nil
		}
		if msg.Err != nil {
			s.list.Fail()
			return nil
		}
		s.list.Show(msg.Candidates)
		return nil

	case predict.ResultMsg:
		if s.orch.Handle(msg) != predict.Applied {
			return nil
		}
		return s.record(store.NewLookup(msg.Result, int(msg.Horizon), s.now()))

	case RecordedMsg:
		if msg.Err != nil {
			s.log.Warn("failed to record lookup", "ticker", msg.Lookup.Ticker, "error", msg.Err)
		}
	}
	return nil
}

// Choose selects row i of the open list: the candidate is confirmed, its
// name replaces the input, the list closes and a prediction is requested.
func (s *Session) Choose(i int) tea.Cmd {
	c, ok := s.list.At(i)
	if !ok {
		return nil
	}
	sel := s.tracker.Confirm(c)
	s.input = c.Name
	s.closeList()
	return s.request(sel)
}

// Submit handles Enter. See selection.Tracker.Submit for precedence.
func (s *Session) Submit() tea.Cmd {
	c, open := s.list.Highlighted()
	d, ok := s.tracker.Submit(c, open, s.input)
	if !ok {
		return nil
	}
	if d.Source == selection.FromSuggestion {
		s.input = d.Selection.Name
	}
	s.closeList()
	s.log.Debug("submit", "ticker", d.Selection.Ticker, "source", d.Source.String())
	return s.request(d.Selection)
}

// SetHorizon parses and stores a new horizon. The tracked selection is
// re-requested only while results are shown.
func (s *Session) SetHorizon(raw string) (tea.Cmd, error) {
	h, err := domain.ParseHorizon(raw)
	if err != nil {
		return nil, err
	}
	return s.applyHorizon(h), nil
}

// StepHorizon moves delta places through choices from the current horizon.
func (s *Session) StepHorizon(choices []domain.Horizon, delta int) tea.Cmd {
	if len(choices) == 0 {
		return nil
	}
	idx := 0
	for i, h := range choices {
		if h == s.horizon {
			idx = i
			break
		}
	}
	idx = ((idx+delta)%len(choices) + len(choices)) % len(choices)
	return s.applyHorizon(choices[idx])
}

func (s *Session) applyHorizon(h domain.Horizon) tea.Cmd {
	s.horizon = h
	sel, ok := s.tracker.Current()
	if !ok || !s.Panel().Visible {
		return nil
	}
	return s.request(sel)
}

// MoveHighlight shifts the list highlight.
func (s *Session) MoveHighlight(delta int) { s.list.Move(delta) }

// Dismiss closes the suggestion list.
func (s *Session) Dismiss() { s.closeList() }

func (s *Session) closeList() {
	s.debouncer.Cancel()
	s.list.Clear()
}

func (s *Session) request(sel domain.Selection) tea.Cmd {
	cmd, err := s.orch.Request(sel, s.horizon)
	if err != nil {
		var uie *domain.UserInputError
		if errors.As(err, &uie) {
			s.log.Info("prediction not requested", "reason", uie.Reason)
		}
		return nil
	}
	return cmd
}

func (s *Session) record(l store.Lookup) tea.Cmd {
	rec := s.recorder
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return RecordedMsg{Lookup: l, Err: rec.RecordLookup(ctx, l)}
	}
}
