package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stockcast/internal/config"
	"stockcast/internal/dashboard"
	"stockcast/internal/debounce"
	"stockcast/internal/domain"
	"stockcast/internal/predict"
	"stockcast/internal/session"
	"stockcast/internal/store"
	"stockcast/internal/suggest"
	"stockcast/internal/util"
	"stockcast/internal/view"
	"stockcast/internal/watchlist"
	"stockcast/pkg/stockcast"
)

// Styles.
var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	horizonStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	rowStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	rowHlStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")).Background(lipgloss.Color("236"))
	tickerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tickerWlStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")) // orange for watchlist
	unavailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Italic(true)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	accuracyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	statLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

const (
	headerLines     = 2 // header bar + input line
	maxSuggestRows  = 8
	priceChartRows  = 14
	volumeChartRows = 6
)

type keyMap struct {
	Quit        key.Binding
	Submit      key.Binding
	Dismiss     key.Binding
	Up          key.Binding
	Down        key.Binding
	NextHorizon key.Binding
	PrevHorizon key.Binding
	Watch       key.Binding
	Export      key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "predict")),
	Dismiss:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close list")),
	Up:          key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
	Down:        key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
	NextHorizon: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next horizon")),
	PrevHorizon: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev horizon")),
	Watch:       key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "watchlist")),
	Export:      key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export")),
}

// Messages.
type exportedMsg struct {
	path string
	err  error
}

// Model.
type model struct {
	sess     *session.Session
	horizons []domain.Horizon
	exporter *store.ParquetExporter
	watch    *watchlist.Watchlist // nil if no API keys
	logger   *slog.Logger

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	ready         bool
	width, height int
	status        string
}

func initialModel(sess *session.Session, horizons []domain.Horizon, exporter *store.ParquetExporter, wl *watchlist.Watchlist, logger *slog.Logger) model {
	ti := textinput.New()
	ti.Placeholder = "Company name or ticker"
	ti.Prompt = "Search: "
	ti.CharLimit = 64
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = horizonStyle

	return model{
		sess:     sess,
		horizons: horizons,
		exporter: exporter,
		watch:    wl,
		logger:   logger,
		input:    ti,
		spinner:  sp,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.watch != nil {
		cmds = append(cmds, m.watch.Load())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		m.status = ""
		cmd, handled := m.handleKey(msg)
		cmds = append(cmds, cmd)
		if !handled {
			before := m.input.Value()
			var icmd tea.Cmd
			m.input, icmd = m.input.Update(msg)
			cmds = append(cmds, icmd)
			if after := m.input.Value(); after != before {
				cmds = append(cmds, m.sess.SetInput(after))
			}
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if i, ok := m.rowAt(msg.Y); ok {
				cmds = append(cmds, m.sess.Choose(i))
				m.syncInput()
				break
			}
		}
		if m.ready {
			var vcmd tea.Cmd
			m.viewport, vcmd = m.viewport.Update(msg)
			cmds = append(cmds, vcmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(m.width-len(m.input.Prompt)-12, 10)
		if !m.ready {
			m.viewport = viewport.New(m.width, 1)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
		}

	case spinner.TickMsg:
		var scmd tea.Cmd
		m.spinner, scmd = m.spinner.Update(msg)
		cmds = append(cmds, scmd)

	case watchlist.LoadedMsg:
		if msg.Err != nil {
			m.logger.Warn("loading watchlist", "error", msg.Err)
		} else {
			m.watch.Apply(msg)
			m.logger.Info("watchlist loaded", "id", msg.ID, "symbols", len(msg.Symbols))
		}

	case watchlist.ToggledMsg:
		m.watch.Resolve(msg)
		if msg.Err != nil {
			m.logger.Warn("watchlist toggle failed", "symbol", msg.Symbol, "error", msg.Err)
			m.status = "Watchlist update failed for " + msg.Symbol
		} else {
			m.logger.Info("watchlist toggled", "symbol", msg.Symbol, "added", msg.Added)
		}

	case exportedMsg:
		if msg.err != nil {
			m.logger.Error("export failed", "error", msg.err)
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.logger.Info("projection exported", "path", msg.path)
			m.status = "Exported to " + msg.path
		}

	default:
		cmds = append(cmds, m.sess.Update(msg))
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// handleKey runs the pipeline actions bound to msg. Keys it does not handle
// go to the text input.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	list := m.sess.List()
	switch {
	case key.Matches(msg, keys.Submit):
		cmd := m.sess.Submit()
		m.syncInput()
		return cmd, true

	case key.Matches(msg, keys.Dismiss):
		m.sess.Dismiss()
		return nil, true

	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		delta := 1
		if key.Matches(msg, keys.Up) {
			delta = -1
		}
		if list.Open() {
			m.sess.MoveHighlight(delta)
		} else {
			m.viewport.SetYOffset(m.viewport.YOffset + delta)
		}
		return nil, true

	case key.Matches(msg, keys.NextHorizon):
		return m.sess.StepHorizon(m.horizons, 1), true

	case key.Matches(msg, keys.PrevHorizon):
		return m.sess.StepHorizon(m.horizons, -1), true

	case key.Matches(msg, keys.Watch):
		sel, ok := m.sess.Selection()
		if !ok || m.watch == nil || !m.watch.Ready() {
			m.status = "Watchlist not available"
			return nil, true
		}
		return m.watch.Toggle(sel.Ticker), true

	case key.Matches(msg, keys.Export):
		pr, ok := m.sess.Panel().Projection()
		if !ok {
			m.status = "Nothing to export"
			return nil, true
		}
		exp, h := m.exporter, int(m.sess.Horizon())
		return func() tea.Msg {
			path, err := exp.Export(pr, h, time.Now())
			return exportedMsg{path: path, err: err}
		}, true
	}
	return nil, false
}

// syncInput copies the session's input text into the text box after the
// session rewrote it.
func (m *model) syncInput() {
	if m.input.Value() != m.sess.Input() {
		m.input.SetValue(m.sess.Input())
		m.input.CursorEnd()
	}
}

// suggestWindow returns the first list index shown and the number of rows.
func (m *model) suggestWindow() (start, rows int) {
	list := m.sess.List()
	switch list.Status() {
	case suggest.Unavailable:
		return 0, 1
	case suggest.Shown:
		n := len(list.Candidates())
		if n > maxSuggestRows {
			start = max(list.Highlight()-maxSuggestRows+1, 0)
			n = maxSuggestRows
		}
		return start, n
	}
	return 0, 0
}

// rowAt maps a screen line to a suggestion index.
func (m *model) rowAt(y int) (int, bool) {
	if !m.sess.List().Open() {
		return 0, false
	}
	start, rows := m.suggestWindow()
	row := y - headerLines
	if row < 0 || row >= rows {
		return 0, false
	}
	return start + row, true
}

// refresh resizes the viewport around the dropdown and redraws the panel.
func (m *model) refresh() {
	if !m.ready {
		return
	}
	_, rows := m.suggestWindow()
	m.viewport.Height = max(m.height-headerLines-rows-1, 1)
	m.viewport.SetContent(m.renderPanel())
}

func (m model) View() string {
	if !m.ready {
		return "initializing..."
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	b.WriteString("  ")
	b.WriteString(horizonStyle.Render("[" + m.sess.Horizon().String() + "]"))
	b.WriteByte('\n')
	if s := m.renderSuggestions(); s != "" {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m model) renderHeader() string {
	text := " STOCKCAST "
	if sel, ok := m.sess.Selection(); ok {
		text += "| " + sel.DisplayName() + " (" + sel.Ticker + ") "
		if m.watch != nil && m.watch.Contains(sel.Ticker) {
			text += "★ "
		}
	}
	if pad := m.width - lipgloss.Width(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	return headerStyle.Render(text)
}

func (m model) renderSuggestions() string {
	list := m.sess.List()
	if list.Status() == suggest.Unavailable {
		return "  " + unavailStyle.Render(suggest.UnavailableText)
	}
	start, rows := m.suggestWindow()
	if rows == 0 {
		return ""
	}
	lines := make([]string, 0, rows)
	cands := list.Candidates()
	for i := start; i < start+rows; i++ {
		c := cands[i]
		ts := tickerStyle
		if m.watch != nil && m.watch.Contains(c.Ticker) {
			ts = tickerWlStyle
		}
		line := fmt.Sprintf("  %s  %s", ts.Render(fmt.Sprintf("%-6s", c.Ticker)), c.Name)
		if i == list.Highlight() {
			line = rowHlStyle.Render(fmt.Sprintf("> %-6s  %s", c.Ticker, c.Name))
		} else {
			line = rowStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m model) renderPanel() string {
	p := m.sess.Panel()
	if !p.Visible {
		return dimStyle.Render("\n  Search for a company and press Enter to see a forecast.")
	}

	var b strings.Builder
	title := titleStyle.Render(p.Title)
	if p.Loading {
		title = m.spinner.View() + " " + title
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	if p.Error != "" {
		b.WriteString(errorStyle.Render(p.Error))
		b.WriteByte('\n')
		return b.String()
	}
	if p.Phase != view.Ready {
		return b.String()
	}

	if p.Accuracy != "" {
		b.WriteString(accuracyStyle.Render(p.Accuracy))
		b.WriteString("\n\n")
	}
	if p.Stats != nil {
		b.WriteString(renderStats(p.Stats))
		b.WriteString("\n\n")
	}

	width := max(m.width-2, 20)
	b.WriteString(p.Price.View(width, priceChartRows))
	b.WriteString("\n\n")
	b.WriteString(p.Volume.View(width, volumeChartRows))
	b.WriteByte('\n')
	return b.String()
}

func renderStats(s *view.Stats) string {
	field := func(label, value string) string {
		return statLabelStyle.Render(label+": ") + priceStyle.Render(value)
	}
	return strings.Join([]string{
		field("Date", s.Date),
		field("Open", s.Open) + "  " + field("High", s.High) + "  " + field("Low", s.Low) + "  " + field("Close", s.Close),
		field("Volume", s.Volume),
		field("Source", s.SourceURL),
	}, "\n")
}

func (m model) renderFooter() string {
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	help := []key.Binding{keys.Submit, keys.Up, keys.Down, keys.Dismiss, keys.NextHorizon, keys.Export, keys.Quit}
	if m.watch != nil {
		help = append(help[:len(help)-1], keys.Watch, keys.Quit)
	}
	parts := make([]string, 0, len(help))
	for _, k := range help {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, logFile, err := util.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()
	util.SetDefault(logger)

	client := stockcast.NewClient(cfg.Service.BaseURL,
		stockcast.WithTimeout(cfg.Service.Timeout),
		stockcast.WithUserAgent(cfg.Service.UserAgent),
		stockcast.WithLogger(logger),
	)
	resolver := suggest.NewResolver(client,
		suggest.WithCacheTTL(cfg.Suggest.CacheTTL),
		suggest.WithRateLimiter(util.NewRateLimiter(cfg.Suggest.MaxPerMinute, 5)),
		suggest.WithTimeout(cfg.Suggest.Timeout),
		suggest.WithLogger(logger),
	)
	orch := predict.New(client, view.NewPanel(dashboard.NewTextRenderer()),
		predict.WithTimeout(cfg.Service.Timeout),
		predict.WithLogger(logger),
	)

	history, err := store.Open(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening history: %v", err)
	}
	defer history.Close()

	sess := session.New(debounce.New(cfg.UI.Debounce), resolver, orch,
		session.WithHorizon(domain.Horizon(cfg.UI.DefaultHorizon)),
		session.WithRecorder(history),
		session.WithLogger(logger),
	)

	horizons := make([]domain.Horizon, 0, len(cfg.UI.Horizons))
	for _, h := range cfg.UI.Horizons {
		horizons = append(horizons, domain.Horizon(h))
	}

	// Optional Alpaca trading client for watchlist support.
	var wl *watchlist.Watchlist
	if cfg.Alpaca.Enabled() {
		ac := alpacaapi.NewClient(alpacaapi.ClientOpts{
			APIKey:    cfg.Alpaca.APIKey,
			APISecret: cfg.Alpaca.APISecret,
			BaseURL:   cfg.Alpaca.BaseURL,
		})
		wl = watchlist.New(ac, cfg.Alpaca.Watchlist)
		logger.Info("alpaca client initialized for watchlist")
	}

	logger.Info("client starting", "service", client.BaseURL(), "horizon", cfg.UI.DefaultHorizon)

	p := tea.NewProgram(
		initialModel(sess, horizons, store.NewParquetExporter(cfg.Storage.ExportDir), wl, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
