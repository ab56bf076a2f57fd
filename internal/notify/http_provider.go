package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPProvider posts messages to an SMS gateway's JSON API.
type HTTPProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPProvider creates an SMS gateway client.
func NewHTTPProvider(endpoint, apiKey string, logger *slog.Logger) *HTTPProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

type smsRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Dispatch sends one SMS. Any non-2xx gateway response is an error so the
// circuit breaker sees provider trouble.
func (p *HTTPProvider) Dispatch(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(smsRequest{To: msg.To, Body: msg.Body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, string(body))
	}

	p.logger.Debug("sms dispatched", "to", msg.To)
	return nil
}
