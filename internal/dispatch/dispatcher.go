// Package dispatch implements dual tracking: the same logical marketing
// event is reported through the browser pixel and through the server relay,
// correlated by a shared event id so the advertising platform can
// deduplicate. Both deliveries are best-effort; tracking must never delay or
// break the user action that triggered it.
package dispatch

import (
	"context"
	"sync"

	"github.com/jonesrussell/conversions-relay/internal/domain"
	"github.com/jonesrussell/conversions-relay/internal/eventid"
	"github.com/jonesrussell/conversions-relay/internal/logger"
)

// Browser context sources for the correlation identifiers.
const (
	browserIDCookie = "_fbp"
	clickIDParam    = "fbclid"
)

// BrowserContext abstracts the hosting environment's browser globals, so the
// dispatch logic can run and be tested without a real browser.
type BrowserContext interface {
	// Cookie returns a first-party cookie value by name.
	Cookie(name string) (string, bool)
	// QueryParam returns a query parameter from the current page URL.
	QueryParam(name string) (string, bool)
	// InvokePixel calls the pixel library if it is loaded, reporting
	// whether the call was made.
	InvokePixel(eventName string, data map[string]any) bool
}

// RelaySender delivers a relay request to the server endpoint.
type RelaySender interface {
	Send(ctx context.Context, req RelayRequest) error
}

// EventData carries page-level context for the relay path.
type EventData struct {
	SourceURL string `json:"sourceUrl,omitempty"`
}

// RelayRequest is the body posted to the server relay endpoint.
type RelayRequest struct {
	EventName  string          `json:"eventName"`
	EventID    string          `json:"eventId"`
	UserData   domain.UserData `json:"userData"`
	CustomData map[string]any  `json:"customData,omitempty"`
	EventData  EventData       `json:"eventData"`
}

// Options is the per-event options bag for Track.
type Options struct {
	// EventID overrides the generated deduplication key.
	EventID string
	// UserData carries raw identity fields for the relay path.
	UserData domain.UserData
	// CustomData carries event parameters.
	CustomData map[string]any
	// SourceURL is the page the event originated from.
	SourceURL string
}

// Dispatcher fires both tracking channels for a logical event.
type Dispatcher struct {
	browser BrowserContext
	relay   RelaySender
	onError func(error)
	log     logger.Logger
	wg      sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithErrorHandler sets the callback invoked when a background relay
// delivery fails. The default is a no-op.
func WithErrorHandler(onError func(error)) Option {
	return func(d *Dispatcher) {
		if onError != nil {
			d.onError = onError
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// New creates a Dispatcher over the given browser context and relay sender.
func New(browser BrowserContext, relay RelaySender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		browser: browser,
		relay:   relay,
		onError: func(error) {},
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Track reports one logical event through both channels and returns the
// shared event id immediately. The pixel call happens synchronously and
// unchecked; the relay POST runs in the background, and its failure reaches
// only the error handler, never the caller.
func (d *Dispatcher) Track(eventName string, opts Options) string {
	id := opts.EventID
	if id == "" {
		id = eventid.New()
	}

	// Pixel path: custom data plus the shared dedup key. The pixel library
	// hashes identity fields itself, so none are attached here.
	pixelData := make(map[string]any, len(opts.CustomData)+1)
	for k, v := range opts.CustomData {
		pixelData[k] = v
	}
	pixelData["eventID"] = id

	if !d.browser.InvokePixel(eventName, pixelData) {
		d.log.Debug("Pixel library not present, relay path only",
			logger.String("event_name", eventName),
		)
	}

	// Relay path: merge the browser correlation identifiers into user data.
	userData := opts.UserData
	if userData.ClickID == "" {
		if v, ok := d.browser.QueryParam(clickIDParam); ok {
			userData.ClickID = v
		}
	}
	if userData.BrowserID == "" {
		if v, ok := d.browser.Cookie(browserIDCookie); ok {
			userData.BrowserID = v
		}
	}

	req := RelayRequest{
		EventName:  eventName,
		EventID:    id,
		UserData:   userData,
		CustomData: opts.CustomData,
		EventData:  EventData{SourceURL: opts.SourceURL},
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.relay.Send(context.Background(), req); err != nil {
			d.log.Warn("Relay delivery failed",
				logger.String("event_id", id),
				logger.String("event_name", eventName),
				logger.Error(err),
			)
			d.onError(err)
		}
	}()

	return id
}

// Flush waits for all in-flight relay deliveries. Call on shutdown or in
// tests; normal operation never waits.
func (d *Dispatcher) Flush() {
	d.wg.Wait()
}
