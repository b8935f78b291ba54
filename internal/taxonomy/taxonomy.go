package taxonomy

import (
	"strings"

	"github.com/jonesrussell/conversions-relay/internal/dispatch"
	"github.com/jonesrussell/conversions-relay/internal/domain"
)

// EventDispatcher is the dual-tracking surface the engine drives. Satisfied
// by *dispatch.Dispatcher.
type EventDispatcher interface {
	Track(eventName string, opts dispatch.Options) string
}

// Tracker translates site actions into advertising events. Every helper
// routes through the configured Policy before dispatch, so the same engine
// serves both the unrestricted and the compliance-mode taxonomies.
type Tracker struct {
	dispatcher EventDispatcher
	policy     Policy
}

// NewTracker creates a Tracker. A nil policy means unrestricted custom data.
func NewTracker(dispatcher EventDispatcher, policy Policy) *Tracker {
	if policy == nil {
		policy = UnrestrictedPolicy{}
	}
	return &Tracker{
		dispatcher: dispatcher,
		policy:     policy,
	}
}

func (t *Tracker) track(eventName string, opts dispatch.Options) string {
	opts.CustomData = t.policy.Filter(opts.CustomData)
	return t.dispatcher.Track(eventName, opts)
}

// PageView reports a content view for the given page.
func (t *Tracker) PageView(sourceURL, pageName string) string {
	return t.track(domain.EventViewContent, dispatch.Options{
		SourceURL: sourceURL,
		CustomData: map[string]any{
			"content_name": pageName,
			"content_type": "page",
		},
	})
}

// NewsletterSignup reports a newsletter subscription with the subscriber's
// email attached for identity matching.
func (t *Tracker) NewsletterSignup(email, sourceURL string) string {
	return t.track(domain.EventCompleteRegistration, dispatch.Options{
		SourceURL: sourceURL,
		UserData:  domain.UserData{Email: email},
		CustomData: map[string]any{
			"content_name": "newsletter",
			"status":       "subscribed",
		},
	})
}

// ContactRequest reports a contact form submission.
func (t *Tracker) ContactRequest(user domain.UserData, topic, sourceURL string) string {
	return t.track(domain.EventContact, dispatch.Options{
		SourceURL: sourceURL,
		UserData:  user,
		CustomData: map[string]any{
			"content_name": topic,
		},
	})
}

// QuoteStarted reports that a visitor opened the get-started flow.
func (t *Tracker) QuoteStarted(clientType, sourceURL string) string {
	return t.track(domain.EventInitiateCheckout, dispatch.Options{
		SourceURL: sourceURL,
		CustomData: map[string]any{
			"content_category": clientType,
		},
	})
}

// QuoteResult carries the event ids from a completed get-started form.
type QuoteResult struct {
	ScheduleEventID string
	LeadEventID     string
}

// QuoteCompleted reports a finished get-started form. The funnel models this
// as two events, a Schedule for the consultation booking and a Lead for the
// qualified prospect, each with its own deduplication id.
func (t *Tracker) QuoteCompleted(user domain.UserData, clientType string, interests []string, sourceURL string) QuoteResult {
	scheduleID := t.track(domain.EventSchedule, dispatch.Options{
		SourceURL: sourceURL,
		UserData:  user,
		CustomData: map[string]any{
			"content_name":     "consultation",
			"content_category": clientType,
		},
	})

	leadData := map[string]any{
		"content_category": clientType,
	}
	if len(interests) > 0 {
		leadData["content_name"] = strings.Join(interests, ",")
	}
	leadID := t.track(domain.EventLead, dispatch.Options{
		SourceURL:  sourceURL,
		UserData:   user,
		CustomData: leadData,
	})

	return QuoteResult{ScheduleEventID: scheduleID, LeadEventID: leadID}
}

// ApplicationSubmitted reports a completed product application.
func (t *Tracker) ApplicationSubmitted(user domain.UserData, product, sourceURL string) string {
	return t.track(domain.EventSubmitApplication, dispatch.Options{
		SourceURL: sourceURL,
		UserData:  user,
		CustomData: map[string]any{
			"content_name": product,
		},
	})
}
