package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender is the interface any SMS backend must implement. Keeping it minimal
// means backends are trivially swappable without changing the Kafka consumer.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// GatewaySender delivers texts through a REST SMS gateway using stdlib
// net/http only, no SDK dependency. Any gateway accepting a JSON
// {from, to, text} POST with bearer auth works.
type GatewaySender struct {
	url        string
	apiKey     string
	fromNumber string
	httpClient *http.Client
}

// NewGatewaySender creates a GatewaySender ready to use.
func NewGatewaySender(url, apiKey, fromNumber string) *GatewaySender {
	return &GatewaySender{
		url:        url,
		apiKey:     apiKey,
		fromNumber: fromNumber,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// gatewayRequest is the JSON body sent to the gateway.
type gatewayRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// gatewayResponse captures just the fields we care about for logging.
type gatewayResponse struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Send dispatches ev to the gateway. It returns a non-nil error if the HTTP
// request fails or the gateway returns a non-2xx status. The caller (Kafka
// consumer) decides whether to retry or route to the DLQ.
func (s *GatewaySender) Send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(gatewayRequest{
		From: s.fromNumber,
		To:   ev.To,
		Text: ev.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(respBody))
	}

	var gwResp gatewayResponse
	if err := json.Unmarshal(respBody, &gwResp); err == nil && len(gwResp.Errors) > 0 {
		return fmt.Errorf("gateway error %s: %s", gwResp.Errors[0].Code, gwResp.Errors[0].Detail)
	}

	return nil
}
