// Package predict issues prediction requests and decides which response may
// update the results panel.
//
// Every request gets a new epoch and only the response for the most recent
// epoch is displayed. Older responses are dropped without touching the
// panel, so overlapping requests resolve to last-issued-wins.
package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockcast/internal/domain"
	"stockcast/internal/view"
	"stockcast/pkg/stockcast"
)

// Titles and messages shown on failure.
const (
	TitleFailed          = "Prediction Failed"
	TitleDisplayError    = "Display Error"
	MessageInvalidLayout = "Error: Received invalid data structure from server."
)

// Fetcher is the prediction endpoint. *stockcast.Client implements it.
type Fetcher interface {
	Predict(ctx context.Context, req stockcast.PredictRequest) (*stockcast.PredictionResult, error)
}

// StaleObserver is told about discarded responses.
type StaleObserver interface {
	StaleDiscarded()
}

// ResultMsg carries a prediction response back to the update loop.
type ResultMsg struct {
	Epoch     uint64
	Selection domain.Selection
	Horizon   domain.Horizon
	Result    *stockcast.PredictionResult
	Err       error
}

// Outcome is what Handle did with a response.
type Outcome int

const (
	Discarded Outcome = iota
	Failed
	Applied
)

func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failed"
	case Applied:
		return "applied"
	default:
		return "discarded"
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each prediction request.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithLogger sets the orchestrator logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithStaleObserver reports discarded responses.
func WithStaleObserver(s StaleObserver) Option {
	return func(o *Orchestrator) { o.stale = s }
}

// Orchestrator owns the request epoch and drives panel transitions.
type Orchestrator struct {
	fetcher Fetcher
	panel   *view.Panel
	active  uint64
	pending map[uint64]struct{}
	timeout time.Duration
	log     *slog.Logger
	stale   StaleObserver
}

// New creates an Orchestrator that displays into panel.
func New(fetcher Fetcher, panel *view.Panel, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher: fetcher,
		panel:   panel,
		pending: make(map[uint64]struct{}),
		timeout: 60 * time.Second,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Request starts a prediction for sel over h periods. The panel switches to
// loading immediately; the returned command performs the call. An invalid
// request returns a *domain.UserInputError and changes nothing.
func (o *Orchestrator) Request(sel domain.Selection, h domain.Horizon) (tea.Cmd, error) {
	req := stockcast.PredictRequest{Ticker: sel.Ticker, PredictionDays: int(h)}
	if err := req.Validate(); err != nil {
		return nil, &domain.UserInputError{Reason: fmt.Sprintf("ticker %q, horizon %d", sel.Ticker, h)}
	}

	o.active++
	epoch := o.active
	o.pending[epoch] = struct{}{}
	o.panel.BeginLoading(sel.DisplayName())
	o.log.Info("prediction requested", "epoch", epoch, "ticker", sel.Ticker, "days", int(h))

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()
		res, err := o.fetcher.Predict(ctx, req)
		return ResultMsg{Epoch: epoch, Selection: sel, Horizon: h, Result: res, Err: err}
	}, nil
}

// Handle applies msg if it answers the active request.
func (o *Orchestrator) Handle(msg ResultMsg) Outcome {
	if _, ok := o.pending[msg.Epoch]; !ok {
		o.log.Debug("duplicate prediction response ignored", "epoch", msg.Epoch)
		return Discarded
	}
	delete(o.pending, msg.Epoch)
	o.panel.SetLoading(o.Loading())

	if msg.Epoch != o.active {
		o.log.Debug("stale prediction response discarded",
			"epoch", msg.Epoch, "active", o.active, "ticker", msg.Selection.Ticker)
		if o.stale != nil {
			o.stale.StaleDiscarded()
		}
		return Discarded
	}

	if msg.Err != nil {
		o.log.Warn("prediction failed", "epoch", msg.Epoch, "ticker", msg.Selection.Ticker, "error", msg.Err)
		o.panel.Fail(TitleFailed, "Error: "+stockcast.UserMessage(msg.Err))
		return Failed
	}

	pr, err := view.Project(msg.Result)
	if err != nil {
		var se *view.StructuralError
		if errors.As(err, &se) {
			o.log.Error("invalid prediction payload", "epoch", msg.Epoch, "ticker", msg.Selection.Ticker, "reason", se.Reason)
		}
		o.panel.Fail(TitleDisplayError, MessageInvalidLayout)
		return Failed
	}
	o.panel.Apply(pr)
	return Applied
}

// Loading reports whether the active request is still in flight.
func (o *Orchestrator) Loading() bool {
	_, ok := o.pending[o.active]
	return ok
}

// Active returns the most recently issued epoch.
func (o *Orchestrator) Active() uint64 { return o.active }

// Panel returns the panel the orchestrator displays into.
func (o *Orchestrator) Panel() *view.Panel { return o.panel }
