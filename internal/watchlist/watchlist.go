// Package watchlist mirrors an Alpaca watchlist so the client can toggle the
// tracked ticker in and out of it.
package watchlist

import (
	"sort"
	"strings"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	tea "github.com/charmbracelet/bubbletea"
)

// API is the subset of the Alpaca trading client used here.
type API interface {
	GetWatchlists() ([]alpacaapi.Watchlist, error)
	GetWatchlist(watchlistID string) (*alpacaapi.Watchlist, error)
	CreateWatchlist(req alpacaapi.CreateWatchlistRequest) (*alpacaapi.Watchlist, error)
	AddSymbolToWatchlist(watchlistID string, req alpacaapi.AddSymbolToWatchlistRequest) (*alpacaapi.Watchlist, error)
	RemoveSymbolFromWatchlist(watchlistID string, req alpacaapi.RemoveSymbolFromWatchlistRequest) error
}

// LoadedMsg reports the remote watchlist contents.
type LoadedMsg struct {
	ID      string
	Symbols map[string]bool
	Err     error
}

// ToggledMsg reports the outcome of a remote add or remove.
type ToggledMsg struct {
	Symbol string
	Added  bool
	Err    error
}

// Watchlist is the local mirror. It is mutated only from the update loop.
type Watchlist struct {
	api     API
	name    string
	id      string
	symbols map[string]bool
}

// New creates an unloaded mirror of the watchlist called name.
func New(api API, name string) *Watchlist {
	return &Watchlist{api: api, name: name, symbols: make(map[string]bool)}
}

// Load gets or creates the named watchlist and returns its symbols.
func (w *Watchlist) Load() tea.Cmd {
	api, name := w.api, w.name
	return func() tea.Msg {
		return fetch(api, name)
	}
}

func fetch(api API, name string) LoadedMsg {
	lists, err := api.GetWatchlists()
	if err != nil {
		return LoadedMsg{Err: err}
	}
	for _, l := range lists {
		if l.Name != name {
			continue
		}
		// GetWatchlists doesn't include assets; fetch the full watchlist.
		full, err := api.GetWatchlist(l.ID)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		syms := make(map[string]bool, len(full.Assets))
		for _, a := range full.Assets {
			syms[a.Symbol] = true
		}
		return LoadedMsg{ID: l.ID, Symbols: syms}
	}
	created, err := api.CreateWatchlist(alpacaapi.CreateWatchlistRequest{Name: name})
	if err != nil {
		return LoadedMsg{Err: err}
	}
	return LoadedMsg{ID: created.ID, Symbols: make(map[string]bool)}
}

// Apply installs a successful load.
func (w *Watchlist) Apply(msg LoadedMsg) {
	if msg.Err != nil {
		return
	}
	w.id = msg.ID
	w.symbols = msg.Symbols
}

// Ready reports whether the remote list has been loaded.
func (w *Watchlist) Ready() bool { return w.id != "" }

// Contains reports whether symbol is on the list.
func (w *Watchlist) Contains(symbol string) bool {
	return w.symbols[strings.ToUpper(symbol)]
}

// Len returns the number of symbols.
func (w *Watchlist) Len() int { return len(w.symbols) }

// Symbols returns the symbols on the list in sorted order.
func (w *Watchlist) Symbols() []string {
	out := make([]string, 0, len(w.symbols))
	for s := range w.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Toggle flips symbol locally and returns the command that makes the same
// change remotely. Resolve reverts the local change if that fails.
func (w *Watchlist) Toggle(symbol string) tea.Cmd {
	if !w.Ready() || symbol == "" {
		return nil
	}
	sym := strings.ToUpper(symbol)
	api, id := w.api, w.id

	if w.symbols[sym] {
		delete(w.symbols, sym)
		return func() tea.Msg {
			err := api.RemoveSymbolFromWatchlist(id, alpacaapi.RemoveSymbolFromWatchlistRequest{Symbol: sym})
			return ToggledMsg{Symbol: sym, Added: false, Err: err}
		}
	}
	w.symbols[sym] = true
	return func() tea.Msg {
		_, err := api.AddSymbolToWatchlist(id, alpacaapi.AddSymbolToWatchlistRequest{Symbol: sym})
		return ToggledMsg{Symbol: sym, Added: true, Err: err}
	}
}

// Resolve reverts a failed toggle.
func (w *Watchlist) Resolve(msg ToggledMsg) {
	if msg.Err == nil {
		return
	}
	if msg.Added {
		delete(w.symbols, msg.Symbol)
	} else {
		w.symbols[msg.Symbol] = true
	}
}
