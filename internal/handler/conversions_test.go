package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/conversions-relay/internal/capi"
	"github.com/jonesrussell/conversions-relay/internal/domain"
	"github.com/jonesrussell/conversions-relay/internal/handler"
	"github.com/jonesrussell/conversions-relay/internal/logger"
	"github.com/jonesrussell/conversions-relay/internal/middleware"
)

// fakeRelay records SendEvent calls and returns a configured result.
type fakeRelay struct {
	configured bool
	calls      int
	lastEvent  domain.TrackedEvent
	lastMeta   capi.RequestMeta
	err        error
}

func (f *fakeRelay) Configured() bool {
	return f.configured
}

func (f *fakeRelay) SendEvent(_ context.Context, event domain.TrackedEvent, meta capi.RequestMeta) (*capi.Response, error) {
	f.calls++
	f.lastEvent = event
	f.lastMeta = meta
	if f.err != nil {
		return nil, f.err
	}
	return &capi.Response{EventsReceived: 1}, nil
}

func setupRouter(relay *fakeRelay) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.BotFilter())
	h := handler.NewConversionsHandler(relay, logger.NewNop(), nil)
	r.POST("/api/conversions", h.HandleTrack)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/conversions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh)")
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var res map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	return res
}

func TestHandleTrack_GeneratesEventID(t *testing.T) {
	relay := &fakeRelay{configured: true}
	r := setupRouter(relay)

	w := postJSON(r, `{"eventName":"Lead","userData":{"email":"A@B.com","phone":"5551234567"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	res := decodeResponse(t, w)
	if res["success"] != true {
		t.Fatalf("expected success=true, got %v", res["success"])
	}
	eventID, _ := res["eventId"].(string)
	if eventID == "" {
		t.Fatal("expected a generated eventId in the response")
	}

	if relay.calls != 1 {
		t.Fatalf("expected 1 relay call, got %d", relay.calls)
	}
	if relay.lastEvent.ID != eventID {
		t.Fatalf("relayed event id %q does not match response id %q", relay.lastEvent.ID, eventID)
	}
	if relay.lastEvent.Name != domain.EventLead {
		t.Fatalf("expected event name Lead, got %q", relay.lastEvent.Name)
	}
	if relay.lastEvent.UserData.Email != "A@B.com" {
		t.Fatalf("expected raw email passed to relay, got %q", relay.lastEvent.UserData.Email)
	}
	if relay.lastEvent.Time == 0 {
		t.Fatal("expected event time to default to now")
	}
}

func TestHandleTrack_SuppliedEventIDPropagates(t *testing.T) {
	relay := &fakeRelay{configured: true}
	r := setupRouter(relay)

	w := postJSON(r, `{"eventName":"Schedule","eventId":"evt-shared-42"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	res := decodeResponse(t, w)
	if res["eventId"] != "evt-shared-42" {
		t.Fatalf("expected supplied event id echoed back, got %v", res["eventId"])
	}
	if relay.lastEvent.ID != "evt-shared-42" {
		t.Fatalf("expected supplied event id relayed, got %q", relay.lastEvent.ID)
	}
}

func TestHandleTrack_MissingCredentials(t *testing.T) {
	relay := &fakeRelay{configured: false}
	r := setupRouter(relay)

	w := postJSON(r, `{"eventName":"Lead"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing credentials, got %d", w.Code)
	}
	if relay.calls != 0 {
		t.Fatalf("expected no outbound call without credentials, got %d", relay.calls)
	}
}

func TestHandleTrack_UpstreamRejectionPropagates(t *testing.T) {
	errBody := `{"error":{"message":"Invalid parameter"}}`
	relay := &fakeRelay{
		configured: true,
		err:        &capi.UpstreamError{StatusCode: http.StatusBadRequest, Body: []byte(errBody)},
	}
	r := setupRouter(relay)

	w := postJSON(r, `{"eventName":"Lead"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected upstream 400 to propagate, got %d", w.Code)
	}

	res := decodeResponse(t, w)
	details, err := json.Marshal(res["details"])
	if err != nil {
		t.Fatalf("marshal details: %v", err)
	}
	if string(details) != errBody {
		t.Fatalf("expected error body surfaced unchanged, got %s", details)
	}
}

func TestHandleTrack_NonJSONUpstreamBodySurfaced(t *testing.T) {
	relay := &fakeRelay{
		configured: true,
		err:        &capi.UpstreamError{StatusCode: http.StatusBadGateway, Body: []byte("Bad Gateway")},
	}
	r := setupRouter(relay)

	w := postJSON(r, `{"eventName":"Lead"}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected upstream 502 to propagate, got %d", w.Code)
	}

	res := decodeResponse(t, w)
	if res["details"] != "Bad Gateway" {
		t.Fatalf("expected plain-text error body surfaced as string, got %v", res["details"])
	}
}

func TestHandleTrack_TransportFailureIsGeneric500(t *testing.T) {
	relay := &fakeRelay{configured: true, err: context.DeadlineExceeded}
	r := setupRouter(relay)

	w := postJSON(r, `{"eventName":"Lead"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for transport failure, got %d", w.Code)
	}
}

func TestHandleTrack_InvalidBody(t *testing.T) {
	relay := &fakeRelay{configured: true}
	r := setupRouter(relay)

	w := postJSON(r, `{"userData":{}}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing eventName, got %d", w.Code)
	}
	if relay.calls != 0 {
		t.Fatalf("expected no relay call for invalid body, got %d", relay.calls)
	}
}

func TestHandleTrack_BotAcknowledgedNotRelayed(t *testing.T) {
	relay := &fakeRelay{configured: true}
	r := setupRouter(relay)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/conversions",
		strings.NewReader(`{"eventName":"ViewContent"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Googlebot/2.1 (+http://www.google.com/bot.html)")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for bot, got %d", w.Code)
	}
	if relay.calls != 0 {
		t.Fatalf("expected bot event not relayed, got %d calls", relay.calls)
	}
}

func TestHandleTrack_ForwardedForPreferred(t *testing.T) {
	relay := &fakeRelay{configured: true}
	r := setupRouter(relay)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/conversions",
		strings.NewReader(`{"eventName":"Contact"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh)")
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if relay.lastMeta.ClientIP != "198.51.100.7" {
		t.Fatalf("expected first forwarded-for hop, got %q", relay.lastMeta.ClientIP)
	}
	if relay.lastMeta.UserAgent != "Mozilla/5.0 (Macintosh)" {
		t.Fatalf("expected user agent attached, got %q", relay.lastMeta.UserAgent)
	}
}
