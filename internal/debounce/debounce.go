// Package debounce delays autocomplete lookups until the user pauses typing.
//
// Each notification bumps a token. The scheduled message carries the token it
// was issued with, and only a message carrying the latest token is due, so a
// burst of keystrokes produces exactly one lookup for the final text.
package debounce

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultInterval is the quiet period before a lookup fires.
const DefaultInterval = 300 * time.Millisecond

// FiredMsg is delivered when a scheduled lookup's quiet period elapses.
type FiredMsg struct {
	Token uint64
	Query string
}

// Scheduler produces a command that delivers fn's message after d.
type Scheduler func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithScheduler replaces tea.Tick as the scheduling primitive.
func WithScheduler(s Scheduler) Option {
	return func(d *Debouncer) { d.schedule = s }
}

// Debouncer tracks the latest pending lookup.
type Debouncer struct {
	interval time.Duration
	schedule Scheduler
	token    uint64
}

// New creates a Debouncer. A non-positive interval uses DefaultInterval.
func New(interval time.Duration, opts ...Option) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	d := &Debouncer{interval: interval, schedule: tea.Tick}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify schedules a lookup for text, superseding any pending one. Blank text
// cancels the pending lookup and returns nil.
func (d *Debouncer) Notify(text string) tea.Cmd {
	d.token++
	query := strings.TrimSpace(text)
	if query == "" {
		return nil
	}
	token := d.token
	return d.schedule(d.interval, func(time.Time) tea.Msg {
		return FiredMsg{Token: token, Query: query}
	})
}

// Due reports whether msg belongs to the most recent notification.
func (d *Debouncer) Due(msg FiredMsg) bool {
	return msg.Token == d.token
}

// Cancel invalidates any pending lookup.
func (d *Debouncer) Cancel() { d.token++ }

// Token returns the current token. Lookups started for an older token are
// stale.
func (d *Debouncer) Token() uint64 { return d.token }

// Interval returns the quiet period.
func (d *Debouncer) Interval() time.Duration { return d.interval }
