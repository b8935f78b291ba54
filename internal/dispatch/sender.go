package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSendTimeout = 10 * time.Second

// HTTPRelaySender posts relay requests to the conversions relay endpoint.
type HTTPRelaySender struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPRelaySender creates a sender for the given endpoint URL. A nil
// httpClient gets a default with a send timeout.
func NewHTTPRelaySender(endpoint string, httpClient *http.Client) *HTTPRelaySender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultSendTimeout}
	}
	return &HTTPRelaySender{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// Send posts one relay request. Non-success statuses are returned as errors
// so the dispatcher's error handler sees them.
func (s *HTTPRelaySender) Send(ctx context.Context, relayReq RelayRequest) error {
	body, err := json.Marshal(relayReq)
	if err != nil {
		return fmt.Errorf("marshal relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post relay request: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		resBody, _ := io.ReadAll(res.Body)
		return fmt.Errorf("relay endpoint returned status %d: %s", res.StatusCode, resBody)
	}

	return nil
}
