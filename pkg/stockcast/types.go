package stockcast

// Candidate is a company name/ticker pair returned by suggestion lookup.
type Candidate struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// SuggestResponse is the body of GET /suggest.
type SuggestResponse struct {
	Suggestions []Candidate `json:"suggestions"`
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Ticker         string `json:"ticker" validate:"required"`
	PredictionDays int    `json:"prediction_days" validate:"gt=0"`
}

// LatestStats holds the most recent session's OHLCV values. Every field may
// be null on the wire.
type LatestStats struct {
	Date   *string  `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *int64   `json:"volume"`
}

// PredictionResult is the body of a successful POST /predict. Series
// elements are pointers because the service emits null for NaN/Inf points.
// A nil slice means the field was absent (or null) in the payload.
type PredictionResult struct {
	CompanyName        string       `json:"company_name"`
	Ticker             string       `json:"ticker"`
	HistoricalDates    []string     `json:"historical_dates"`
	HistoricalPrices   []*float64   `json:"historical_prices"`
	HistoricalVolume   []*float64   `json:"historical_volume"`
	PredictedDates     []string     `json:"predicted_dates"`
	PredictedPrices    []*float64   `json:"predicted_prices"`
	SMAShort           []*float64   `json:"sma_short"`
	SMALong            []*float64   `json:"sma_long"`
	ModelFitPercentage float64      `json:"model_fit_percentage"`
	LatestStats        *LatestStats `json:"latest_stats"`
	SourceURL          string       `json:"yahoo_finance_url"`
	Error              string       `json:"error,omitempty"`
}

// DisplayName returns the company name, falling back to the ticker.
func (r *PredictionResult) DisplayName() string {
	if r.CompanyName != "" {
		return r.CompanyName
	}
	return r.Ticker
}

// LastPredicted returns the final non-null predicted price.
func (r *PredictionResult) LastPredicted() (float64, bool) {
	return lastValue(r.PredictedPrices)
}

// LastClose returns the final non-null historical close.
func (r *PredictionResult) LastClose() (float64, bool) {
	return lastValue(r.HistoricalPrices)
}

func lastValue(vs []*float64) (float64, bool) {
	for i := len(vs) - 1; i >= 0; i-- {
		if vs[i] != nil {
			return *vs[i], true
		}
	}
	return 0, false
}
