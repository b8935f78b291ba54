// Package handler contains the gin HTTP handlers for the conversions relay.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/conversions-relay/internal/capi"
	"github.com/jonesrussell/conversions-relay/internal/domain"
	"github.com/jonesrussell/conversions-relay/internal/eventid"
	"github.com/jonesrussell/conversions-relay/internal/logger"
	"github.com/jonesrussell/conversions-relay/internal/telemetry"
)

// TrackEventRequest is the body accepted by POST /api/conversions.
type TrackEventRequest struct {
	EventName string `binding:"required" json:"eventName"`
	EventData struct {
		SourceURL string `json:"sourceUrl"`
	} `json:"eventData"`
	UserData   domain.UserData `json:"userData"`
	EventID    string          `json:"eventId"`
	EventTime  int64           `json:"eventTime"`
	CustomData map[string]any  `json:"customData"`
}

// Relay sends a tracked event to the advertising platform.
type Relay interface {
	Configured() bool
	SendEvent(ctx context.Context, event domain.TrackedEvent, meta capi.RequestMeta) (*capi.Response, error)
}

// ConversionsHandler handles server-side event relay requests.
type ConversionsHandler struct {
	relay   Relay
	logger  logger.Logger
	metrics *telemetry.Metrics
}

// NewConversionsHandler creates a ConversionsHandler with the given dependencies.
func NewConversionsHandler(relay Relay, log logger.Logger, metrics *telemetry.Metrics) *ConversionsHandler {
	return &ConversionsHandler{
		relay:   relay,
		logger:  log,
		metrics: metrics,
	}
}

// HandleTrack accepts a tracked event, hashes its PII via the relay client,
// and forwards it to the Conversions API. The event id in the response lets
// the caller verify dedup-key propagation against its own pixel call.
func (h *ConversionsHandler) HandleTrack(c *gin.Context) {
	var req TrackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// Both credentials or neither: never send a half-configured event.
	if !h.relay.Configured() {
		h.logger.Error("Relay credentials missing, rejecting event",
			logger.String("event_name", req.EventName),
		)
		h.metrics.RecordEvent(req.EventName, telemetry.OutcomeConfigError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server configuration error"})
		return
	}

	event := buildEvent(c, req)

	if c.GetBool("is_bot") {
		h.metrics.RecordEvent(event.Name, telemetry.OutcomeSkippedBot)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"eventId": event.ID,
			"message": "Event acknowledged",
		})
		return
	}

	meta := capi.RequestMeta{
		ClientIP:  clientIP(c),
		UserAgent: c.Request.UserAgent(),
	}

	if _, err := h.relay.SendEvent(c.Request.Context(), event, meta); err != nil {
		h.respondRelayError(c, event, err)
		return
	}

	h.metrics.RecordEvent(event.Name, telemetry.OutcomeRelayed)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"eventId": event.ID,
		"message": "Event relayed",
	})
}

// respondRelayError maps a relay failure onto the HTTP response. Upstream
// rejections propagate their status code and error body unchanged; anything
// else is a generic 500.
func (h *ConversionsHandler) respondRelayError(c *gin.Context, event domain.TrackedEvent, err error) {
	var upstream *capi.UpstreamError
	if errors.As(err, &upstream) {
		h.metrics.RecordEvent(event.Name, telemetry.OutcomeRejected)

		// Non-JSON bodies (a proxy's HTML 502, say) would break the JSON
		// render and vanish; wrap them as a string instead.
		var details any = json.RawMessage(upstream.Body)
		if !json.Valid(upstream.Body) {
			details = string(upstream.Body)
		}
		c.JSON(upstream.StatusCode, gin.H{
			"error":   "conversions api error",
			"details": details,
		})
		return
	}

	h.logger.Error("Relay failed",
		logger.String("event_id", event.ID),
		logger.String("event_name", event.Name),
		logger.Error(err),
	)
	h.metrics.RecordEvent(event.Name, telemetry.OutcomeError)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// buildEvent fills in the optional event fields: a generated id, the current
// time, and the Referer header when no source URL was supplied.
func buildEvent(c *gin.Context, req TrackEventRequest) domain.TrackedEvent {
	id := req.EventID
	if id == "" {
		id = eventid.New()
	}

	eventTime := req.EventTime
	if eventTime == 0 {
		eventTime = time.Now().Unix()
	}

	sourceURL := req.EventData.SourceURL
	if sourceURL == "" {
		sourceURL = c.Request.Referer()
	}

	return domain.TrackedEvent{
		Name:       req.EventName,
		ID:         id,
		Time:       eventTime,
		UserData:   req.UserData,
		CustomData: req.CustomData,
		SourceURL:  sourceURL,
	}
}

// clientIP prefers the first forwarded-for hop, then the real-ip header,
// then the connection address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	if real := c.GetHeader("X-Real-IP"); real != "" {
		return real
	}
	return c.ClientIP()
}
