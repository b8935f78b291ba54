package taxonomy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/conversions-relay/internal/dispatch"
	"github.com/jonesrussell/conversions-relay/internal/domain"
	"github.com/jonesrussell/conversions-relay/internal/taxonomy"
)

// fakeDispatcher records Track calls and hands back deterministic ids.
type fakeDispatcher struct {
	calls []trackCall
}

type trackCall struct {
	eventName string
	opts      dispatch.Options
}

func (d *fakeDispatcher) Track(eventName string, opts dispatch.Options) string {
	d.calls = append(d.calls, trackCall{eventName: eventName, opts: opts})
	return "evt-" + eventName
}

func TestQuoteCompleted_FansOutScheduleAndLead(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	tracker := taxonomy.NewTracker(dispatcher, nil)

	user := domain.UserData{Email: "prospect@example.com"}
	result := tracker.QuoteCompleted(user, "individual", []string{"medicare", "dental"}, "https://example.com/get-started")

	require.Len(t, dispatcher.calls, 2)
	assert.Equal(t, domain.EventSchedule, dispatcher.calls[0].eventName)
	assert.Equal(t, domain.EventLead, dispatcher.calls[1].eventName)

	assert.Equal(t, "evt-"+domain.EventSchedule, result.ScheduleEventID)
	assert.Equal(t, "evt-"+domain.EventLead, result.LeadEventID)
	assert.NotEqual(t, result.ScheduleEventID, result.LeadEventID)

	for _, call := range dispatcher.calls {
		assert.Equal(t, user, call.opts.UserData)
		assert.Equal(t, "https://example.com/get-started", call.opts.SourceURL)
		assert.Equal(t, "individual", call.opts.CustomData["content_category"])
	}
	assert.Equal(t, "medicare,dental", dispatcher.calls[1].opts.CustomData["content_name"])
}

func TestNewsletterSignup_CarriesEmail(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	tracker := taxonomy.NewTracker(dispatcher, nil)

	tracker.NewsletterSignup("reader@example.com", "https://example.com/blog")

	require.Len(t, dispatcher.calls, 1)
	call := dispatcher.calls[0]
	assert.Equal(t, domain.EventCompleteRegistration, call.eventName)
	assert.Equal(t, "reader@example.com", call.opts.UserData.Email)
	assert.Equal(t, "newsletter", call.opts.CustomData["content_name"])
	assert.Equal(t, "subscribed", call.opts.CustomData["status"])
}

func TestCompliantPolicy_StripsUnlistedKeys(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	tracker := taxonomy.NewTracker(dispatcher, taxonomy.NewCompliantPolicy())

	tracker.ContactRequest(domain.UserData{}, "billing", "https://example.com/contact")

	require.Len(t, dispatcher.calls, 1)
	assert.Equal(t, "billing", dispatcher.calls[0].opts.CustomData["content_name"])
}

func TestAllowListPolicy_Filter(t *testing.T) {
	policy := taxonomy.NewAllowListPolicy("value", "currency")

	filtered := policy.Filter(map[string]any{
		"value":        49.99,
		"currency":     "USD",
		"internal_ref": "crm-123",
		"notes":        "do not send",
	})

	assert.Equal(t, map[string]any{"value": 49.99, "currency": "USD"}, filtered)
	assert.Nil(t, policy.Filter(nil))
}

func TestUnrestrictedPolicy_PassesEverything(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	tracker := taxonomy.NewTracker(dispatcher, taxonomy.UnrestrictedPolicy{})

	tracker.PageView("https://example.com/plans", "plans")

	require.Len(t, dispatcher.calls, 1)
	assert.Equal(t, domain.EventViewContent, dispatcher.calls[0].eventName)
	assert.Equal(t, "page", dispatcher.calls[0].opts.CustomData["content_type"])
}

func TestHelperEventNames(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	tracker := taxonomy.NewTracker(dispatcher, nil)

	tracker.QuoteStarted("family", "https://example.com/get-started")
	tracker.ApplicationSubmitted(domain.UserData{Email: "a@b.com"}, "medicare-advantage", "https://example.com/apply")

	require.Len(t, dispatcher.calls, 2)
	assert.Equal(t, domain.EventInitiateCheckout, dispatcher.calls[0].eventName)
	assert.Equal(t, domain.EventSubmitApplication, dispatcher.calls[1].eventName)
	assert.Equal(t, "medicare-advantage", dispatcher.calls[1].opts.CustomData["content_name"])
}
