package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"stockcast/internal/store"
	"stockcast/internal/watch"
	"stockcast/internal/watchlist"
)

// Source provides the latest forecast snapshots.
type Source interface {
	Latest() []watch.Snapshot
	LatestFor(ticker string) (watch.Snapshot, bool)
}

// Option configures a Server.
type Option func(*Server)

// WithHistory serves recorded lookups from s.
func WithHistory(s store.LookupStore) Option {
	return func(srv *Server) { srv.history = s }
}

// WithExportDir serves Parquet exports found under dir.
func WithExportDir(dir string) Option {
	return func(srv *Server) { srv.exportDir = dir }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(srv *Server) { srv.metrics = h }
}

// WithWatchlist serves and edits the Alpaca watchlist mirrored by wl.
func WithWatchlist(wl *watchlist.Watchlist) Option {
	return func(srv *Server) { srv.watchlist = wl }
}

// WithLogger sets the server logger.
func WithLogger(log *slog.Logger) Option {
	return func(srv *Server) { srv.log = log }
}

// Server serves the watcher HTTP API.
type Server struct {
	source    Source
	history   store.LookupStore
	exportDir string
	metrics   http.Handler
	log       *slog.Logger

	// Watchlist mirror (nil if not configured). Guarded by wlMu.
	wlMu      sync.Mutex
	watchlist *watchlist.Watchlist
}

// NewServer creates a server over source.
func NewServer(source Source, opts ...Option) *Server {
	s := &Server{
		source:  source,
		history: store.NoopStore{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadWatchlist gets or creates the remote watchlist. It is a no-op when no
// watchlist is configured.
func (s *Server) LoadWatchlist() error {
	s.wlMu.Lock()
	defer s.wlMu.Unlock()
	if s.watchlist == nil {
		return nil
	}
	msg, _ := s.watchlist.Load()().(watchlist.LoadedMsg)
	if msg.Err != nil {
		return fmt.Errorf("loading watchlist: %w", msg.Err)
	}
	s.watchlist.Apply(msg)
	s.log.Info("watchlist loaded", "id", msg.ID, "symbols", len(msg.Symbols))
	return nil
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/latest", s.handleLatest)
	mux.HandleFunc("GET /api/latest/{ticker}", s.handleLatestFor)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/exports/{ticker}", s.handleExports)
	mux.HandleFunc("GET /api/exports/{ticker}/{file}", s.handleSeries)
	mux.HandleFunc("GET /api/watchlist", s.handleGetWatchlist)
	mux.HandleFunc("PUT /api/watchlist/{symbol}", s.handleAddWatchlist)
	mux.HandleFunc("DELETE /api/watchlist/{symbol}", s.handleRemoveWatchlist)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	snaps := s.source.Latest()
	out := make([]ForecastJSON, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, convertSnapshot(snap))
	}
	writeJSON(w, LatestResponse{Forecasts: out})
}

func (s *Server) handleLatestFor(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))
	snap, ok := s.source.LatestFor(ticker)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no forecast for %s", ticker))
		return
	}
	writeJSON(w, convertSnapshot(snap))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.URL.Query().Get("ticker"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	lookups, err := s.history.RecentLookups(r.Context(), ticker, limit)
	if err != nil {
		s.log.Error("listing lookups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	out := make([]LookupJSON, 0, len(lookups))
	for _, l := range lookups {
		out = append(out, convertLookup(l))
	}
	writeJSON(w, HistoryResponse{Ticker: ticker, Lookups: out})
}

func (s *Server) handleExports(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))
	files := []string{}
	if s.exportDir != "" && validName(ticker) {
		entries, err := os.ReadDir(filepath.Join(s.exportDir, ticker))
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
					files = append(files, e.Name())
				}
			}
		}
	}
	sort.Strings(files)
	writeJSON(w, ExportsResponse{Ticker: ticker, Files: files})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))
	file := r.PathValue("file")
	if s.exportDir == "" || !validName(ticker) || !validName(file) || !strings.HasSuffix(file, ".parquet") {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}

	records, err := store.ReadSeries(filepath.Join(s.exportDir, ticker, file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "export not found")
			return
		}
		s.log.Error("reading export", "ticker", ticker, "file", file, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read export")
		return
	}

	resp := SeriesResponse{Ticker: ticker, File: file, Points: convertSeries(records)}
	if len(records) > 0 {
		resp.Horizon = int(records[0].Horizon)
	}
	writeJSON(w, resp)
}

// validName rejects path components that could escape the export directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	s.wlMu.Lock()
	defer s.wlMu.Unlock()
	if s.watchlist == nil || !s.watchlist.Ready() {
		writeJSON(w, WatchlistResponse{Symbols: []string{}})
		return
	}
	writeJSON(w, WatchlistResponse{Symbols: s.watchlist.Symbols()})
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	s.setWatched(w, strings.ToUpper(r.PathValue("symbol")), true)
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	s.setWatched(w, strings.ToUpper(r.PathValue("symbol")), false)
}

func (s *Server) setWatched(w http.ResponseWriter, symbol string, want bool) {
	s.wlMu.Lock()
	defer s.wlMu.Unlock()
	if s.watchlist == nil || !s.watchlist.Ready() {
		writeError(w, http.StatusServiceUnavailable, "watchlist not configured")
		return
	}
	if !validName(symbol) {
		writeError(w, http.StatusBadRequest, "invalid symbol")
		return
	}
	if s.watchlist.Contains(symbol) == want {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg, _ := s.watchlist.Toggle(symbol)().(watchlist.ToggledMsg)
	s.watchlist.Resolve(msg)
	if msg.Err != nil {
		verb := "remove"
		if want {
			verb = "add"
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to %s %s: %v", verb, symbol, msg.Err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
