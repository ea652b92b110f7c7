package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"stockcast/internal/config"
	"stockcast/internal/dashboard"
	"stockcast/internal/domain"
	"stockcast/internal/predict"
	"stockcast/internal/store"
	"stockcast/internal/util"
	"stockcast/internal/view"
	"stockcast/pkg/stockcast"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stockcast-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version                        Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  suggest <query>                List matching companies\n")
		fmt.Fprintf(os.Stderr, "  predict <ticker> [days]        Show a forecast (default %d days)\n", domain.DefaultHorizon)
		fmt.Fprintf(os.Stderr, "  export <ticker> <days> <file>  Write a forecast to a Parquet file\n")
		fmt.Fprintf(os.Stderr, "  history [n] [ticker]           List recent lookups\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	if os.Args[1] == "version" {
		fmt.Printf("stockcast-cli %s\n", version)
		return
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger := util.NewWriterLogger(os.Stderr, cfg.Logging.Level, "text")
	util.SetDefault(logger)

	client := stockcast.NewClient(cfg.Service.BaseURL,
		stockcast.WithTimeout(cfg.Service.Timeout),
		stockcast.WithUserAgent(cfg.Service.UserAgent),
		stockcast.WithLogger(logger),
	)
	args := os.Args[2:]

	switch os.Args[1] {
	case "suggest":
		if len(args) < 1 {
			usageExit("suggest requires a query")
		}
		err = runSuggest(client, strings.Join(args, " "))

	case "predict":
		if len(args) < 1 {
			usageExit("predict requires a ticker")
		}
		raw := ""
		if len(args) > 1 {
			raw = args[1]
		}
		err = runPredict(cfg, client, logger, args[0], raw)

	case "export":
		if len(args) < 3 {
			usageExit("export requires a ticker, days and file")
		}
		err = runExport(cfg, client, logger, args[0], args[1], args[2])

	case "history":
		err = runHistory(cfg, args)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usageExit(msg string) {
	fmt.Fprintf(os.Stderr, "%s\n\n", msg)
	flag.Usage()
	os.Exit(1)
}

func runSuggest(client *stockcast.Client, query string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cands, err := client.Suggest(ctx, query)
	if err != nil {
		return fmt.Errorf("looking up %q: %w", query, err)
	}
	if len(cands) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, c := range cands {
		fmt.Printf("%-8s %s\n", c.Ticker, c.Name)
	}
	return nil
}

// fetch drives one request through the orchestrator and returns its panel.
func fetch(cfg *config.Config, client *stockcast.Client, logger *slog.Logger, ticker, rawDays string) (*view.Panel, domain.Horizon, predict.ResultMsg, error) {
	h := domain.Horizon(cfg.UI.DefaultHorizon)
	if rawDays != "" {
		var err error
		if h, err = domain.ParseHorizon(rawDays); err != nil {
			return nil, 0, predict.ResultMsg{}, err
		}
	}

	orch := predict.New(client, view.NewPanel(dashboard.NewTextRenderer()),
		predict.WithTimeout(cfg.Service.Timeout),
		predict.WithLogger(logger),
	)
	sym := strings.ToUpper(strings.TrimSpace(ticker))
	cmd, err := orch.Request(domain.Selection{Name: sym, Ticker: sym}, h)
	if err != nil {
		return nil, 0, predict.ResultMsg{}, err
	}
	msg, _ := cmd().(predict.ResultMsg)
	orch.Handle(msg)
	return orch.Panel(), h, msg, nil
}

func runPredict(cfg *config.Config, client *stockcast.Client, logger *slog.Logger, ticker, rawDays string) error {
	p, h, msg, err := fetch(cfg, client, logger, ticker, rawDays)
	if err != nil {
		return err
	}

	fmt.Println(p.Title)
	if p.Phase != view.Ready {
		return fmt.Errorf("%s", strings.TrimPrefix(p.Error, "Error: "))
	}

	fmt.Println()
	fmt.Println(p.Accuracy)
	if s := p.Stats; s != nil {
		fmt.Println()
		fmt.Printf("Date: %s  Open: %s  High: %s  Low: %s  Close: %s  Volume: %s\n",
			s.Date, s.Open, s.High, s.Low, s.Close, s.Volume)
		fmt.Printf("Source: %s\n", s.SourceURL)
	}
	fmt.Println()
	fmt.Println(p.Price.View(100, 16))
	fmt.Println()
	fmt.Println(p.Volume.View(100, 6))

	history, err := store.Open(cfg.Storage.SQLitePath)
	if err != nil {
		logger.Warn("opening history", "error", err)
		return nil
	}
	defer history.Close()
	l := store.NewLookup(msg.Result, int(h), time.Now())
	if err := history.RecordLookup(context.Background(), l); err != nil {
		logger.Warn("failed to record lookup", "ticker", l.Ticker, "error", err)
	}
	return nil
}

func runExport(cfg *config.Config, client *stockcast.Client, logger *slog.Logger, ticker, rawDays, path string) error {
	p, h, _, err := fetch(cfg, client, logger, ticker, rawDays)
	if err != nil {
		return err
	}
	pr, ok := p.Projection()
	if !ok {
		return fmt.Errorf("%s: %s", p.Title, strings.TrimPrefix(p.Error, "Error: "))
	}
	if err := store.WriteProjection(path, pr, int(h)); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows for %s to %s\n", len(store.SeriesRecords(pr, int(h))), pr.Ticker, path)
	return nil
}

func runHistory(cfg *config.Config, args []string) error {
	limit := 20
	ticker := ""
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		limit = n
	}
	if len(args) > 1 {
		ticker = strings.ToUpper(args[1])
	}

	if cfg.Storage.SQLitePath == "" {
		return fmt.Errorf("history is disabled (storage.sqlite_path is empty)")
	}
	history, err := store.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer history.Close()

	lookups, err := history.RecentLookups(context.Background(), ticker, limit)
	if err != nil {
		return err
	}
	if len(lookups) == 0 {
		fmt.Println("no lookups recorded")
		return nil
	}
	for _, l := range lookups {
		fmt.Printf("%s  %-6s %4dd  fit %5.1f%%  close %-10s predicted %-10s %s\n",
			l.CreatedAt.Format("2006-01-02 15:04"), l.Ticker, l.Horizon, l.FitPercentage,
			price(l.LastClose), price(l.LastPredicted), l.Name)
	}
	return nil
}

func price(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return dashboard.FormatDollars(*v)
}
