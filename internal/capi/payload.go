package capi

import (
	"github.com/jonesrussell/conversions-relay/internal/domain"
	"github.com/jonesrussell/conversions-relay/internal/pii"
)

// payload is the Conversions API batch envelope. The relay always sends a
// batch of exactly one event.
type payload struct {
	Data []eventPayload `json:"data"`
}

// eventPayload matches the platform's event object shape.
type eventPayload struct {
	EventName      string            `json:"event_name"`
	EventTime      int64             `json:"event_time"`
	EventID        string            `json:"event_id"`
	ActionSource   string            `json:"action_source"`
	EventSourceURL string            `json:"event_source_url,omitempty"`
	UserData       map[string]string `json:"user_data"`
	CustomData     map[string]any    `json:"custom_data,omitempty"`
}

func (c *Client) buildPayload(event domain.TrackedEvent, meta RequestMeta) payload {
	return payload{
		Data: []eventPayload{{
			EventName:      event.Name,
			EventTime:      event.Time,
			EventID:        event.ID,
			ActionSource:   actionSourceWebsite,
			EventSourceURL: event.SourceURL,
			UserData:       c.buildUserData(event.UserData, meta),
			CustomData:     event.CustomData,
		}},
	}
}

// buildUserData normalizes and hashes each present PII field. Fields that
// fail normalization are omitted, never transmitted empty. Client IP, user
// agent, and the two correlation identifiers pass through unhashed.
func (c *Client) buildUserData(ud domain.UserData, meta RequestMeta) map[string]string {
	out := make(map[string]string)

	hashField := func(key, raw string, normalize func(string) (string, bool)) {
		if raw == "" {
			return
		}
		normalized, ok := normalize(raw)
		if !ok {
			c.metrics.RecordDroppedField(key)
			return
		}
		out[key] = pii.Hash(normalized)
	}

	hashField("em", ud.Email, pii.NormalizeEmail)
	hashField("ph", ud.Phone, pii.NormalizePhone)
	hashField("fn", ud.FirstName, pii.NormalizeName)
	hashField("ln", ud.LastName, pii.NormalizeName)
	hashField("ct", ud.City, pii.NormalizeCity)
	hashField("zp", ud.Zip, pii.NormalizeZip)
	hashField("db", ud.DateOfBirth, pii.NormalizeDateOfBirth)

	if ud.State != "" {
		code, truncated, ok := pii.NormalizeState(ud.State)
		switch {
		case !ok:
			c.metrics.RecordDroppedField("st")
		default:
			if truncated {
				// Full state names lose information here ("texas" -> "te").
				c.metrics.RecordStateTruncated()
			}
			out["st"] = pii.Hash(code)
		}
	}

	// Country always falls back to the configured default before hashing.
	if country, ok := pii.NormalizeCountry(ud.Country, c.country); ok {
		out["country"] = pii.Hash(country)
	}

	if meta.ClientIP != "" {
		out["client_ip_address"] = meta.ClientIP
	}
	if meta.UserAgent != "" {
		out["client_user_agent"] = meta.UserAgent
	}
	if ud.ClickID != "" {
		out["fbc"] = ud.ClickID
	}
	if ud.BrowserID != "" {
		out["fbp"] = ud.BrowserID
	}

	return out
}
