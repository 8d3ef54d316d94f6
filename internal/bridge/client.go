// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the renderer-side counterpart of the bridge: it speaks the
// invoke/send contract over the loopback transport. Callers that need the
// event stream subscribe directly against /v1/events.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a bridge client for the given base URL, e.g.
// "http://127.0.0.1:4517".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 150 * time.Second,
		},
	}
}

// Invoke performs a request/response call on an invoke channel. A non-nil
// params value is sent as the JSON body; a non-nil out receives the decoded
// response. Channel rejections and transport failures surface as errors;
// application-level {success:false} envelopes do not, callers inspect the
// decoded response for those.
func (c *Client) Invoke(ctx context.Context, channel string, params, out interface{}) error {
	var body io.Reader
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode params for %s: %w", channel, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/invoke/"+channel, body)
	if err != nil {
		return fmt.Errorf("build invoke request: %w", err)
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", channel, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxRequestBodySize))
	if err != nil {
		return fmt.Errorf("read invoke response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope Result
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("invoke %s: %s", channel, envelope.Error)
		}
		return fmt.Errorf("invoke %s: unexpected status %d", channel, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode invoke response for %s: %w", channel, err)
		}
	}
	return nil
}

// Send fires a one-way message on a send channel. The bridge accepts and
// drops invalid channels silently, so a nil error only means the message
// was delivered to the transport.
func (c *Client) Send(ctx context.Context, channel string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/send/"+channel, nil)
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", channel, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("send %s: unexpected status %d", channel, resp.StatusCode)
	}
	return nil
}

// Health checks bridge liveness.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: unexpected status %d", resp.StatusCode)
	}
	return nil
}
