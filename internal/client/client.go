// Package client provides typed HTTP functions for the knowledge-base backend.
//
// Every function builds a JSON request against the configured base URL,
// attaches the bearer token where the endpoint requires one, and validates the
// {"status":"success","data":[...]} envelope. Nothing is retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/kbchat/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is used when neither the caller nor KBCHAT_API_URL sets one.
	DefaultBaseURL = "http://localhost:5000/api/v1"

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024

	statusSuccess = "success"
)

// Client talks to the knowledge-base backend.
type Client struct {
	baseURL    string
	assetURL   string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	rateLimit  float64
	assetURL   string
	collector  *metrics.Collector
	logger     *slog.Logger
}

// WithHTTPClient uses hc instead of a fresh http.Client. The client is copied,
// never mutated.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTimeout sets an overall request timeout. Zero means none; callers cancel
// through the context.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRateLimit paces outgoing requests to rps per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(o *options) { o.rateLimit = rps }
}

// WithAssetURL sets the static asset root used by AssetURL.
func WithAssetURL(u string) Option {
	return func(o *options) { o.assetURL = u }
}

// WithCollector records per-endpoint timings.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithLogger logs every request through a LoggingTransport.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a client for baseURL.
// If baseURL is empty, uses KBCHAT_API_URL env var or DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("KBCHAT_API_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	hc := &http.Client{}
	if o.httpClient != nil {
		copied := *o.httpClient
		hc = &copied
	}
	if o.timeout > 0 {
		hc.Timeout = o.timeout
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	} else {
		hc.Transport = &LoggingTransport{Base: hc.Transport, Logger: logger}
	}

	collector := o.collector
	if collector == nil {
		collector = metrics.NewCollector()
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		assetURL:   strings.TrimRight(o.assetURL, "/"),
		httpClient: hc,
		metrics:    collector,
		logger:     logger,
	}
	if o.rateLimit > 0 {
		burst := int(o.rateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(o.rateLimit), burst)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Metrics returns the client's request statistics.
func (c *Client) Metrics() *metrics.Collector {
	return c.metrics
}

// envelope is the success wrapper every endpoint returns.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// do sends one request and returns the raw body of a 2xx response.
// op names the endpoint for metrics. token may be empty for public endpoints.
func (c *Client) do(ctx context.Context, op, method, path, token string, body any) (raw []byte, err error) {
	start := time.Now()
	defer func() {
		c.metrics.Record(op, time.Since(start), err)
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errorf("request cancelled: %v", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errorf("encode request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errorf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errorf("request failed: %v", unwrapURLError(err))
	}
	defer resp.Body.Close()

	raw, err = io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, errorf("read response: %v", err)
	}
	if len(raw) > MaxResponseSize {
		return nil, errorf("response exceeds %d bytes", MaxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, raw)
	}
	return raw, nil
}

// errorBodyMessage extracts {"message": "..."} from an error body.
func errorBodyMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

// unwrapURLError drops the "Get \"<url>\":" prefix net/http adds.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

// decodeList unwraps a success envelope into a slice. A single object in
// "data" is treated as a one-element list; missing data is an empty list.
func decodeList[T any](body []byte) ([]T, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status != statusSuccess {
		return nil, ErrInvalidResponse
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	if data[0] == '{' {
		var one T
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, ErrInvalidResponse
		}
		return []T{one}, nil
	}

	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, ErrInvalidResponse
	}
	return list, nil
}

// decodeOne unwraps a success envelope and returns data[0].
func decodeOne[T any](body []byte) (*T, error) {
	list, err := decodeList[T](body)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrInvalidResponse
	}
	return &list[0], nil
}

func requireToken(token string) error {
	if token == "" {
		return ErrNoToken
	}
	return nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return errorf("%s id is required", kind)
	}
	return nil
}
