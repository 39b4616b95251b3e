package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to a Bitrix24 portal through an inbound webhook. Every
// REST method is invoked as POST <webhook>/<method> with a JSON body.
type Client struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new webhook client
func NewClient(webhookURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Call invokes a single REST method and returns its result payload
func (c *Client) Call(ctx context.Context, method string, params map[string]any) (*CallResult, error) {
	resp, err := c.do(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &CallError{Code: resp.Error, Description: resp.ErrorDescription}
	}
	return &CallResult{Result: resp.Result, Total: resp.Total, Next: resp.Next}, nil
}

// CallBatch submits up to 50 commands as one batch call. The remote
// executes them in order and reports per-command results and errors
// under the commands' correlation keys. halt=0 keeps the batch running
// past individual failures.
func (c *Client) CallBatch(ctx context.Context, commands []Command) (*BatchResult, error) {
	if len(commands) == 0 {
		return &BatchResult{}, nil
	}

	cmd := make(map[string]string, len(commands))
	for _, command := range commands {
		cmd[command.Key] = command.encode()
	}

	resp, err := c.do(ctx, "batch", map[string]any{
		"halt": 0,
		"cmd":  cmd,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &CallError{Code: resp.Error, Description: resp.ErrorDescription}
	}

	var payload batchPayload
	if err := json.Unmarshal(resp.Result, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode batch result: %w", err)
	}

	return &BatchResult{
		Results: payload.Result,
		Errors:  payload.ResultError,
		Totals:  payload.ResultTotal,
	}, nil
}

func (c *Client) do(ctx context.Context, method string, params map[string]any) (*apiResponse, error) {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	reqURL := c.webhookURL + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("CRM call",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("CRM returned malformed response (status %d): %w", resp.StatusCode, err)
	}

	// error payloads arrive with non-2xx status and a filled error field
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != "" {
			return nil, &CallError{Code: parsed.Error, Description: parsed.ErrorDescription}
		}
		return nil, fmt.Errorf("CRM error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return &parsed, nil
}
