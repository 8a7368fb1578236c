package nlu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/dockwise/internal/logging"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds each NLU round trip.
const DefaultTimeout = 10 * time.Second

// Client implements ports.Classifier against a Rasa-compatible HTTP API
// (POST /model/parse, GET /status).
type Client struct {
	baseURL string
	timeout time.Duration
	retries int
	debug   bool
	logger  *slog.Logger
	http    *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithDebug enables request/response dumps.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetRetryCount(c.retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetDebug(c.debug)
	return c
}

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Text   string `json:"text"`
	Intent *struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"intent"`
	Entities []struct {
		Entity           string   `json:"entity"`
		Value            any      `json:"value"`
		Confidence       *float64 `json:"confidence"`
		ConfidenceEntity *float64 `json:"confidence_entity"`
	} `json:"entities"`
}

type errorResponse struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// Classify sends text to /model/parse. The threshold is not sent; the
// interpreter applies it to the returned confidence.
func (c *Client) Classify(ctx context.Context, text string, threshold float64) (*domain.NLUResult, error) {
	var out parseResponse
	var apiErr errorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(parseRequest{Text: text}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/model/parse")
	if err != nil {
		return nil, fmt.Errorf("nlu request failed: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("nlu request failed: %s", msg)
	}

	res := &domain.NLUResult{Text: out.Text}
	if res.Text == "" {
		res.Text = text
	}
	if out.Intent != nil && out.Intent.Name != "" {
		res.Intent = &domain.Intent{Name: out.Intent.Name, Confidence: out.Intent.Confidence}
	}
	for _, e := range out.Entities {
		// Extractors without a confidence (regex, lookup tables) are certain.
		conf := 1.0
		switch {
		case e.ConfidenceEntity != nil:
			conf = *e.ConfidenceEntity
		case e.Confidence != nil:
			conf = *e.Confidence
		}
		res.Entities = append(res.Entities, domain.Entity{Name: e.Entity, Value: e.Value, Confidence: conf})
	}

	c.logger.Debug("nlu parsed", "text", text, "intent", res.IntentName(), "entities", len(res.Entities), "threshold", threshold)
	return res, nil
}

// Status describes the loaded model.
type Status struct {
	ModelFile   string `json:"model_file"`
	Fingerprint any    `json:"fingerprint,omitempty"`
	Training    int    `json:"num_active_training_jobs"`
}

// Status queries /status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/status")
	if err != nil {
		return nil, fmt.Errorf("nlu status failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("nlu status failed: %s", resp.Status())
	}
	return &out, nil
}
