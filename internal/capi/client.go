// Package capi implements the outbound client for the advertising platform's
// Conversions API. It hashes user-supplied PII, assembles the single-event
// batch payload, and POSTs it to the event-ingestion endpoint.
package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonesrussell/conversions-relay/internal/domain"
	"github.com/jonesrussell/conversions-relay/internal/logger"
	"github.com/jonesrussell/conversions-relay/internal/telemetry"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v18.0"
	defaultCountry    = "us"
	defaultTimeout    = 10 * time.Second
)

// actionSourceWebsite is the fixed action_source value for browser-originated events.
const actionSourceWebsite = "website"

// UpstreamError is returned when the Conversions API answers with a
// non-success status. The relay endpoint propagates both fields to its
// caller unchanged.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("conversions api returned status %d: %s", e.StatusCode, e.Body)
}

// Response is the platform's acknowledgement of an accepted event batch.
type Response struct {
	EventsReceived int    `json:"events_received"`
	FBTraceID      string `json:"fbtrace_id"`
}

// RequestMeta carries request-derived context attached to every event.
// These values come from the relay's own HTTP request, not from the caller,
// and are transmitted unhashed.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// Client sends tracked events to the Conversions API.
type Client struct {
	pixelID     string
	accessToken string
	baseURL     string
	apiVersion  string
	country     string
	httpClient  *http.Client
	log         logger.Logger
	metrics     *telemetry.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Useful for injecting a fake
// transport in tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the Conversions API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithAPIVersion sets the graph API version segment.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// WithDefaultCountry sets the fallback country hashed when the caller
// supplies none.
func WithDefaultCountry(country string) Option {
	return func(c *Client) {
		if country != "" {
			c.country = country
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithMetrics attaches relay metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Conversions API client for the given pixel account.
func New(pixelID, accessToken string, opts ...Option) *Client {
	c := &Client{
		pixelID:     pixelID,
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		apiVersion:  defaultAPIVersion,
		country:     defaultCountry,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether both required credentials are present.
// The business requires both or neither; a half-configured client must not
// send anything.
func (c *Client) Configured() bool {
	return c.pixelID != "" && c.accessToken != ""
}

// SendEvent hashes the event's user data, wraps it in a single-event batch,
// and POSTs it to the platform. A non-success upstream status is returned as
// *UpstreamError with the response body preserved.
func (c *Client) SendEvent(ctx context.Context, event domain.TrackedEvent, meta RequestMeta) (*Response, error) {
	body, err := json.Marshal(c.buildPayload(event, meta))
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/events?access_token=%s",
		c.baseURL, c.apiVersion, c.pixelID, url.QueryEscape(c.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	c.metrics.ObserveUpstream(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("send event %s: %w", event.ID, err)
	}
	defer func() { _ = res.Body.Close() }()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		c.log.Error("Conversions API rejected event",
			logger.String("event_id", event.ID),
			logger.Int("status", res.StatusCode),
			logger.String("body", string(resBody)),
		)
		return nil, &UpstreamError{StatusCode: res.StatusCode, Body: resBody}
	}

	var parsed Response
	if err := json.Unmarshal(resBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse response body: %w", err)
	}

	c.log.Debug("Event relayed",
		logger.String("event_id", event.ID),
		logger.String("event_name", event.Name),
		logger.Int("events_received", parsed.EventsReceived),
	)

	return &parsed, nil
}
