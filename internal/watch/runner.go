// Package watch refreshes a fixed set of forecasts on a cron schedule using
// the same orchestrator and projector as the interactive client.
package watch

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"stockcast/internal/domain"
	"stockcast/internal/predict"
	"stockcast/internal/store"
	"stockcast/internal/view"
)

// Target is one forecast to refresh.
type Target struct {
	Ticker  string
	Horizon domain.Horizon
}

// Snapshot is the latest panel state for a target.
type Snapshot struct {
	Ticker        string
	Horizon       int
	Phase         string
	Title         string
	Error         string
	Accuracy      string
	FitPercentage float64
	Stats         *view.Stats
	LastClose     *float64
	LastPredicted *float64
	UpdatedAt     time.Time
}

// ForecastObserver is told about every applied forecast.
type ForecastObserver interface {
	RecordForecast(ticker string, lastPredicted, fit float64)
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore records applied forecasts.
func WithStore(s store.LookupStore) Option {
	return func(r *Runner) { r.store = s }
}

// WithExporter writes every applied projection to a Parquet file.
func WithExporter(e *store.ParquetExporter) Option {
	return func(r *Runner) { r.exporter = e }
}

// WithLogger sets the runner logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithForecastObserver reports applied forecasts.
func WithForecastObserver(o ForecastObserver) Option {
	return func(r *Runner) { r.observer = o }
}

// WithOrchestratorOptions passes options to every per-target orchestrator.
func WithOrchestratorOptions(opts ...predict.Option) Option {
	return func(r *Runner) { r.orchOpts = append(r.orchOpts, opts...) }
}

// Runner owns one pipeline per target.
type Runner struct {
	cron     *cron.Cron
	fetcher  predict.Fetcher
	targets  []Target
	store    store.LookupStore
	exporter *store.ParquetExporter
	observer ForecastObserver
	orchOpts []predict.Option
	log      *slog.Logger
	now      func() time.Time

	runMu     sync.Mutex
	pipelines map[string]*predict.Orchestrator

	mu     sync.RWMutex
	latest map[string]Snapshot
}

// NewRunner creates a Runner for targets.
func NewRunner(fetcher predict.Fetcher, targets []Target, opts ...Option) *Runner {
	r := &Runner{
		fetcher:   fetcher,
		targets:   targets,
		store:     store.NoopStore{},
		log:       slog.Default(),
		now:       time.Now,
		pipelines: make(map[string]*predict.Orchestrator),
		latest:    make(map[string]Snapshot),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	return r
}

// Schedule registers RunOnce under a five-field cron spec.
func (r *Runner) Schedule(spec string) error {
	_, err := r.cron.AddFunc(spec, func() {
		if err := r.RunOnce(context.Background()); err != nil {
			r.log.Warn("scheduled run interrupted", "error", err)
		}
	})
	return err
}

// Start starts the cron scheduler.
func (r *Runner) Start() {
	r.cron.Start()
	r.log.Info("watcher started", "targets", len(r.targets))
}

// Stop stops the scheduler and returns a context that is done once running
// jobs finish.
func (r *Runner) Stop() context.Context {
	r.log.Info("watcher stopping")
	return r.cron.Stop()
}

// RunOnce refreshes every target in order.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	for _, t := range r.targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.refresh(ctx, t)
	}
	return nil
}

func (r *Runner) refresh(ctx context.Context, t Target) {
	key := strings.ToUpper(t.Ticker)
	orch, ok := r.pipelines[key]
	if !ok {
		orch = predict.New(r.fetcher, view.NewPanel(headless{}), append([]predict.Option{predict.WithLogger(r.log)}, r.orchOpts...)...)
		r.pipelines[key] = orch
	}

	sel := domain.Selection{Name: key, Ticker: key}
	cmd, err := orch.Request(sel, t.Horizon)
	if err != nil {
		r.log.Warn("skipping target", "ticker", key, "error", err)
		return
	}
	msg, _ := cmd().(predict.ResultMsg)
	outcome := orch.Handle(msg)

	p := orch.Panel()
	snap := Snapshot{
		Ticker:    key,
		Horizon:   int(t.Horizon),
		Phase:     p.Phase.String(),
		Title:     p.Title,
		Error:     p.Error,
		Accuracy:  p.Accuracy,
		Stats:     p.Stats,
		UpdatedAt: r.now(),
	}

	if outcome == predict.Applied {
		l := store.NewLookup(msg.Result, int(t.Horizon), snap.UpdatedAt)
		snap.FitPercentage = l.FitPercentage
		snap.LastClose = l.LastClose
		snap.LastPredicted = l.LastPredicted
		if err := r.store.RecordLookup(ctx, l); err != nil {
			r.log.Warn("failed to record lookup", "ticker", key, "error", err)
		}
		if pr, ok := p.Projection(); ok && r.exporter != nil {
			if _, err := r.exporter.Export(pr, int(t.Horizon), snap.UpdatedAt); err != nil {
				r.log.Warn("failed to export projection", "ticker", key, "error", err)
			}
		}
		if r.observer != nil && l.LastPredicted != nil {
			r.observer.RecordForecast(key, *l.LastPredicted, l.FitPercentage)
		}
		r.log.Info("forecast refreshed", "ticker", key, "days", int(t.Horizon), "fit", l.FitPercentage)
	} else {
		r.log.Warn("forecast failed", "ticker", key, "title", p.Title, "error", p.Error)
	}

	r.mu.Lock()
	r.latest[key] = snap
	r.mu.Unlock()
}

// Latest returns the most recent snapshot of every refreshed target, sorted
// by ticker.
func (r *Runner) Latest() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Snapshot, 0, len(r.latest))
	for _, s := range r.latest {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// LatestFor returns the snapshot for ticker.
func (r *Runner) LatestFor(ticker string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.latest[strings.ToUpper(ticker)]
	return s, ok
}

// headless satisfies view.Renderer without drawing anything.
type headless struct{}

func (headless) Render(view.ChartSpec) view.Instance { return headless{} }
func (headless) Draw(int, int) string                { return "" }
func (headless) Destroy()                            {}
