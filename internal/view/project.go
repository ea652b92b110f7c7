// Package view projects prediction results into display state: title,
// accuracy note, latest-session stats and two chart specs.
package view

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"stockcast/pkg/stockcast"
)

// Dataset labels.
const (
	LabelHistorical = "Historical Close"
	LabelSMAShort   = "SMA 20"
	LabelSMALong    = "SMA 50"
	LabelPredicted  = "Predicted Price"
	LabelVolume     = "Volume"
)

const accuracyNote = "Note: An R² of 0% means this simple time-based line model didn't explain past variance well. " +
	"It's illustrative, not investment advice. SMAs show trends."

// StructuralError reports a response missing the fields needed to display it.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string { return "invalid data structure: " + e.Reason }

// Stats is the formatted latest-session block.
type Stats struct {
	Date      string
	Open      string
	High      string
	Low       string
	Close     string
	Volume    string
	SourceURL string
}

// Projection is a result ready for display.
type Projection struct {
	Ticker        string
	Name          string
	Title         string
	Accuracy      string
	FitPercentage float64
	Stats         *Stats // nil when the service sent no usable stats
	Price         ChartSpec
	Volume        ChartSpec
}

// Project builds the display state for r.
func Project(r *stockcast.PredictionResult) (Projection, error) {
	if r == nil {
		return Projection{}, &StructuralError{Reason: "empty result"}
	}
	if r.HistoricalDates == nil {
		return Projection{}, &StructuralError{Reason: "historical_dates missing"}
	}
	if r.HistoricalPrices == nil {
		return Projection{}, &StructuralError{Reason: "historical_prices missing"}
	}

	return Projection{
		Ticker:        r.Ticker,
		Name:          r.DisplayName(),
		Title:         "Stock Analysis for " + r.DisplayName(),
		Accuracy:      AccuracyText(r.ModelFitPercentage),
		FitPercentage: r.ModelFitPercentage,
		Stats:         projectStats(r),
		Price:         priceChart(r),
		Volume:        volumeChart(r),
	}, nil
}

// AccuracyText frames the fit percentage as an illustrative note.
func AccuracyText(fit float64) string {
	return fmt.Sprintf("Simple Linear Model Fit (R-squared on past test data): %s%%\n%s",
		strconv.FormatFloat(fit, 'f', -1, 64), accuracyNote)
}

func projectStats(r *stockcast.PredictionResult) *Stats {
	ls := r.LatestStats
	if ls == nil || ls.Date == nil || *ls.Date == "" {
		return nil
	}
	s := &Stats{
		Date:      *ls.Date,
		Open:      dollars(ls.Open),
		High:      dollars(ls.High),
		Low:       dollars(ls.Low),
		Close:     dollars(ls.Close),
		Volume:    "N/A",
		SourceURL: r.SourceURL,
	}
	if ls.Volume != nil {
		s.Volume = humanize.Comma(*ls.Volume)
	}
	if s.SourceURL == "" {
		s.SourceURL = "#"
	}
	return s
}

func dollars(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *v)
}

func priceChart(r *stockcast.PredictionResult) ChartSpec {
	labels := make([]string, 0, len(r.HistoricalDates)+len(r.PredictedDates))
	labels = append(labels, r.HistoricalDates...)
	labels = append(labels, r.PredictedDates...)

	// Predictions start where history ends.
	predicted := make([]*float64, len(r.HistoricalPrices), len(r.HistoricalPrices)+len(r.PredictedPrices))
	predicted = append(predicted, r.PredictedPrices...)

	return ChartSpec{
		Kind:   Line,
		Labels: labels,
		Datasets: []Dataset{
			{Label: LabelHistorical, Values: r.HistoricalPrices, Color: "#36A2EB"},
			{Label: LabelSMAShort, Values: orEmpty(r.SMAShort), Color: "#FF9F40"},
			{Label: LabelSMALong, Values: orEmpty(r.SMALong), Color: "#9966FF"},
			{Label: LabelPredicted, Values: predicted, Color: "#FF6384", Dashed: true},
		},
		X:      Axis{Scale: Time, Title: "Date"},
		Y:      Axis{Scale: Linear, Title: "Price", Ticks: TickDollars},
		Legend: true,
	}
}

func volumeChart(r *stockcast.PredictionResult) ChartSpec {
	return ChartSpec{
		Kind:     Bar,
		Labels:   r.HistoricalDates,
		Datasets: []Dataset{{Label: LabelVolume, Values: orEmpty(r.HistoricalVolume), Color: "#4BC0C0"}},
		X:        Axis{Scale: Time, Hidden: true},
		Y:        Axis{Scale: Linear, Title: "Volume", Ticks: TickCompact},
	}
}

func orEmpty(vs []*float64) []*float64 {
	if vs == nil {
		return []*float64{}
	}
	return vs
}
