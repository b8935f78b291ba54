// Package domain defines the tracked event model shared by the relay handler,
// the outbound Conversions API client, and the dual-tracking dispatcher.
package domain

// Standard event names accepted by the advertising platform.
// The taxonomy package maps application actions onto this vocabulary.
const (
	EventLead                 = "Lead"
	EventSchedule             = "Schedule"
	EventViewContent          = "ViewContent"
	EventCompleteRegistration = "CompleteRegistration"
	EventSubmitApplication    = "SubmitApplication"
	EventContact              = "Contact"
	EventInitiateCheckout     = "InitiateCheckout"
)

// UserData holds the raw, unhashed identity fields supplied with an event.
// PII fields are normalized and hashed before leaving the service; ClickID
// and BrowserID are correlation identifiers passed through as-is.
type UserData struct {
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`

	// ClickID is the ad click identifier read from the fbclid URL parameter.
	ClickID string `json:"fbc,omitempty"`
	// BrowserID is the pixel correlation identifier read from the _fbp cookie.
	BrowserID string `json:"fbp,omitempty"`
}

// IsZero reports whether no field is set.
func (u UserData) IsZero() bool {
	return u == UserData{}
}

// TrackedEvent is a single logical marketing event. It is constructed once
// per user action, transmitted, and discarded; it is never persisted.
type TrackedEvent struct {
	// Name is one of the fixed platform event names.
	Name string `json:"event_name"`
	// ID is the deduplication key shared between the pixel-path and
	// relay-path transmission of the same logical event.
	ID string `json:"event_id"`
	// Time is the event timestamp in unix seconds.
	Time int64 `json:"event_time"`
	// UserData carries raw identity fields; hashed at the transport edge.
	UserData UserData `json:"user_data"`
	// CustomData carries free-form event parameters.
	CustomData map[string]any `json:"custom_data,omitempty"`
	// SourceURL is the page URL the event originated from.
	SourceURL string `json:"event_source_url,omitempty"`
}
