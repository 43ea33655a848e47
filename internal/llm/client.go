// Package llm is a minimal chat-completions client used by the analysis
// tasks. One request per call, no retries; callers bound each call with a
// context deadline and degrade gracefully when it fails.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 256 * 1024

// Config holds the provider connection settings.
type Config struct {
	Endpoint          string
	Model             string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	log      logrus.FieldLogger
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewClient validates the config and builds a client. A zero
// RequestsPerMinute disables client-side throttling.
func NewClient(cfg Config, log logrus.FieldLogger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("llm: endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return &Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
		log:      log,
	}, nil
}

// Complete sends a single chat completion request and returns the raw text
// of the first choice. There are no retries; a failed request is the
// caller's problem to absorb.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limiter: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   2048,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("llm: parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}

	c.log.WithFields(logrus.Fields{
		"model":    c.model,
		"duration": time.Since(start),
	}).Debug("completion finished")

	return parsed.Choices[0].Message.Content, nil
}
