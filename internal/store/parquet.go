package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockcast/internal/view"
)

// Series kinds.
const (
	KindHistorical = "historical"
	KindPredicted  = "predicted"
)

// SeriesRecord is the Parquet schema for one date of an exported projection.
type SeriesRecord struct {
	Ticker    string   `parquet:"ticker"`
	Date      string   `parquet:"date"`
	Kind      string   `parquet:"kind"`
	Horizon   int32    `parquet:"horizon"`
	Close     *float64 `parquet:"close,optional"`
	SMAShort  *float64 `parquet:"sma_short,optional"`
	SMALong   *float64 `parquet:"sma_long,optional"`
	Predicted *float64 `parquet:"predicted,optional"`
	Volume    *float64 `parquet:"volume,optional"`
}

// ParquetExporter writes projections under Dir.
type ParquetExporter struct {
	Dir string
}

// NewParquetExporter creates an exporter rooted at dir.
func NewParquetExporter(dir string) *ParquetExporter {
	return &ParquetExporter{Dir: dir}
}

// Export writes pr to a file named after its ticker, horizon and date and
// returns the path.
//
//	<Dir>/<TICKER>/<YYYY-MM-DD>-<horizon>d.parquet
func (e *ParquetExporter) Export(pr view.Projection, horizon int, at time.Time) (string, error) {
	path, err := e.exportPath(pr.Ticker, horizon, at)
	if err != nil {
		return "", err
	}
	if err := WriteProjection(path, pr, horizon); err != nil {
		return "", err
	}
	return path, nil
}

func (e *ParquetExporter) exportPath(ticker string, horizon int, at time.Time) (string, error) {
	dir := strings.ToUpper(strings.TrimSpace(ticker))
	if dir == "" || dir == "." || dir == ".." || strings.ContainsAny(dir, `/\`) {
		return "", fmt.Errorf("invalid ticker %q for export", ticker)
	}
	name := fmt.Sprintf("%s-%dd.parquet", at.Format("2006-01-02"), horizon)
	return filepath.Join(e.Dir, dir, name), nil
}

// SeriesRecords aligns the datasets of pr by date. Historical rows come first
// and predicted rows follow.
func SeriesRecords(pr view.Projection, horizon int) []SeriesRecord {
	closes, _ := pr.Price.Dataset(view.LabelHistorical)
	smaShort, _ := pr.Price.Dataset(view.LabelSMAShort)
	smaLong, _ := pr.Price.Dataset(view.LabelSMALong)
	predicted, _ := pr.Price.Dataset(view.LabelPredicted)
	volume, _ := pr.Volume.Dataset(view.LabelVolume)
	historical := len(pr.Volume.Labels)

	records := make([]SeriesRecord, 0, len(pr.Price.Labels))
	for i, date := range pr.Price.Labels {
		kind := KindHistorical
		if i >= historical {
			kind = KindPredicted
		}
		records = append(records, SeriesRecord{
			Ticker:    pr.Ticker,
			Date:      date,
			Kind:      kind,
			Horizon:   int32(horizon),
			Close:     valueAt(closes.Values, i),
			SMAShort:  valueAt(smaShort.Values, i),
			SMALong:   valueAt(smaLong.Values, i),
			Predicted: valueAt(predicted.Values, i),
			Volume:    valueAt(volume.Values, i),
		})
	}
	return records
}

// WriteProjection writes pr's aligned series to path.
func WriteProjection(path string, pr view.Projection, horizon int) error {
	records := SeriesRecords(pr, horizon)
	if len(records) == 0 {
		return fmt.Errorf("nothing to export for %s", pr.Ticker)
	}
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadSeries reads a file written by WriteProjection.
func ReadSeries(path string) ([]SeriesRecord, error) {
	return readParquetFile[SeriesRecord](path)
}

func valueAt(vs []*float64, i int) *float64 {
	if i < len(vs) {
		return vs[i]
	}
	return nil
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
