// Package stockcast is a Go SDK for the suggestion and prediction endpoints
// consumed by the stockcast viewer.
package stockcast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Endpoint names used in errors and observations.
const (
	EndpointSuggest = "suggest"
	EndpointPredict = "predict"
)

// Request outcomes reported to an Observer.
const (
	OutcomeOK          = "ok"
	OutcomeServiceErr  = "service_error"
	OutcomeAppErr      = "application_error"
	OutcomeInvalidBody = "invalid_body"
)

var validate = validator.New()

// Validate checks the request before it is sent.
func (r PredictRequest) Validate() error {
	return validate.Struct(r)
}

// Observer receives one observation per completed request.
type Observer interface {
	ObserveRequest(endpoint, outcome string, elapsed time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithObserver registers a request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// Client talks to the suggestion and prediction service.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	log       *slog.Logger
	observer  Observer
	http      *resty.Client
}

// NewClient creates a new service client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   30 * time.Second,
		userAgent: "stockcast",
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": c.userAgent,
		})
	return c
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Suggest looks up companies matching query. Results keep server order.
func (c *Client) Suggest(ctx context.Context, query string) ([]Candidate, error) {
	start := time.Now()
	reqID := uuid.NewString()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID).
		SetQueryParam("q", query).
		Get("/suggest")
	if err != nil {
		c.observe(EndpointSuggest, OutcomeServiceErr, start)
		return nil, &ServiceError{Endpoint: EndpointSuggest, Err: err}
	}
	if !resp.IsSuccess() {
		c.observe(EndpointSuggest, OutcomeServiceErr, start)
		return nil, &ServiceError{Endpoint: EndpointSuggest, Status: resp.StatusCode()}
	}

	var body SuggestResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		c.observe(EndpointSuggest, OutcomeInvalidBody, start)
		return nil, &ServiceError{
			Endpoint: EndpointSuggest,
			Status:   resp.StatusCode(),
			Err:      fmt.Errorf("decoding suggestions: %w", err),
		}
	}
	if body.Suggestions == nil {
		body.Suggestions = []Candidate{}
	}

	c.observe(EndpointSuggest, OutcomeOK, start)
	c.log.Debug("suggestions fetched", "query", query, "count", len(body.Suggestions), "request_id", reqID)
	return body.Suggestions, nil
}

// Predict requests a forecast for req.Ticker over req.PredictionDays periods.
//
// Failures are *ServiceError for transport problems, non-success statuses
// and undecodable bodies, and *ApplicationError for an error field in a
// success response or an empty body.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (*PredictionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid predict request: %w", err)
	}

	start := time.Now()
	reqID := uuid.NewString()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/predict")
	if err != nil {
		c.observe(EndpointPredict, OutcomeServiceErr, start)
		return nil, &ServiceError{Endpoint: EndpointPredict, Err: err}
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		c.observe(EndpointPredict, OutcomeServiceErr, start)
		return nil, &ServiceError{
			Endpoint: EndpointPredict,
			Status:   resp.StatusCode(),
			Message:  errorField(body),
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		c.observe(EndpointPredict, OutcomeAppErr, start)
		return nil, &ApplicationError{Message: ErrEmptyResponse}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.observe(EndpointPredict, OutcomeInvalidBody, start)
		return nil, &ServiceError{
			Endpoint: EndpointPredict,
			Status:   resp.StatusCode(),
			Err:      fmt.Errorf("decoding prediction: %w", err),
		}
	}
	if len(fields) == 0 {
		c.observe(EndpointPredict, OutcomeAppErr, start)
		return nil, &ApplicationError{Message: ErrEmptyResponse}
	}

	var result PredictionResult
	if err := json.Unmarshal(body, &result); err != nil {
		c.observe(EndpointPredict, OutcomeInvalidBody, start)
		return nil, &ServiceError{
			Endpoint: EndpointPredict,
			Status:   resp.StatusCode(),
			Err:      fmt.Errorf("decoding prediction: %w", err),
		}
	}
	if result.Error != "" {
		c.observe(EndpointPredict, OutcomeAppErr, start)
		return nil, &ApplicationError{Message: result.Error}
	}

	c.observe(EndpointPredict, OutcomeOK, start)
	c.log.Debug("prediction fetched",
		"ticker", req.Ticker, "days", req.PredictionDays,
		"historical", len(result.HistoricalPrices), "predicted", len(result.PredictedPrices),
		"request_id", reqID)
	return &result, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, outcome, time.Since(start))
	}
}

// errorField extracts {"error": "..."} from a failure body, if present.
func errorField(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error
}
