// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter implements the streaming chat-completion client.
package openrouter

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the OpenRouter API.
const (
	// DefaultBaseURL is the base URL for the OpenRouter API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "cognitivecomputations/dolphin-mistral-24b-venice-edition:free"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// readBufferSize is the transport read size for streaming responses.
	// Small enough that cancellation is checked frequently.
	readBufferSize = 4 * 1024
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client for non-streaming OpenRouter requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests (no timeout,
	// lifetime is context-controlled).
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// Client is a client for the OpenRouter chat completions API. It is
// stateless between invocations; a zero-credential client can be created
// but streaming calls will fail fast with ErrNotConfigured.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	limiter *rate.Limiter
}

// NewClient creates a new OpenRouter client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		// One request per second with a small burst is well under the
		// free-tier ceiling.
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithModel sets the completion model.
func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

// WithRateLimit replaces the request rate limiter.
func (c *Client) WithRateLimit(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// GetModel returns the current model.
func (c *Client) GetModel() string {
	return c.model
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// setHeaders sets the required headers for OpenRouter API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "tidechat/0.1.0")
}

// ChatStream performs a streaming chat completion request. The callback is
// called for each text fragment in arrival order. Cancellation via the
// context aborts the in-flight transport read immediately; fragments
// delivered before cancellation are not lost.
//
// Failure modes: ErrNotConfigured before any network call when no key is
// set; *RemoteError for a non-2xx response; *TransportError for a network
// or read failure mid-stream; ctx.Err() on cancellation.
func (c *Client) ChatStream(ctx context.Context, messages []ChatMessage, callback StreamCallback) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	url := c.baseURL + "/chat/completions"

	reqBody := ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	// PERFORMANCE: Shared streaming client with connection pooling
	// (timeout handled via context).
	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxEventSize))
		return &RemoteError{Status: resp.StatusCode, Body: string(body)}
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream pumps raw bytes from the response body through the
// decoder, checking for cancellation between reads.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	dec := NewDecoder()
	buf := make([]byte, readBufferSize)

	for !dec.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			for _, frag := range dec.Feed(buf[:n]) {
				callback(frag)
			}
		}
		if err != nil {
			if err == io.EOF {
				// End of input without the sentinel is normal.
				for _, frag := range dec.Flush() {
					callback(frag)
				}
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Err: err}
		}
	}
	return nil
}

// ChatStreamChan performs a streaming chat and returns a channel of
// fragments. The channel is closed when streaming completes or fails;
// errors are available via the returned error channel.
func (c *Client) ChatStreamChan(ctx context.Context, messages []ChatMessage) (<-chan string, <-chan error) {
	fragChan := make(chan string, 64)
	errChan := make(chan error, 1)

	go func() {
		defer close(fragChan)
		defer close(errChan)

		err := c.ChatStream(ctx, messages, func(fragment string) {
			select {
			case fragChan <- fragment:
			case <-ctx.Done():
			}
		})

		if err != nil {
			errChan <- err
		}
	}()

	return fragChan, errChan
}

// ChatStreamAccumulate performs a streaming chat but returns the full
// response at the end. Useful when streaming is wanted for cancellation
// but the caller needs the complete text.
func (c *Client) ChatStreamAccumulate(ctx context.Context, messages []ChatMessage) (string, error) {
	var accumulated strings.Builder
	err := c.ChatStream(ctx, messages, func(fragment string) {
		accumulated.WriteString(fragment)
	})
	return accumulated.String(), err
}
