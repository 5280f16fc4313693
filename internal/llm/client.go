// Package llm provides the text-generation gateway client.
//
// The gateway is a local OpenAI-compatible chat-completion server (LM Studio,
// Ollama, vLLM and friends all expose the same surface). The client is
// stateless: it sends role-tagged messages and returns the completion text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/cv-letter-agent/internal/logger"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries everything one generation call needs.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int // 0 means the server default
}

// Client is an abstraction over the text-generation backend.
type Client interface {
	// ChatCompletion performs a single blocking generation call.
	ChatCompletion(ctx context.Context, req CompletionRequest) (string, error)
}

// Options configures a GatewayClient.
type Options struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxAttempts int // total attempts per call; values < 1 are treated as 1
}

// GatewayClient implements Client against an OpenAI-compatible HTTP endpoint.
type GatewayClient struct {
	baseURL     string
	model       string
	maxAttempts int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewGatewayClient creates a gateway client. The base URL must not be empty.
func NewGatewayClient(opts Options, log *zap.Logger) (*GatewayClient, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("gateway model name is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &GatewayClient{
		baseURL:     opts.BaseURL,
		model:       opts.Model,
		maxAttempts: opts.MaxAttempts,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		logger:      log,
	}, nil
}

type chatCompletionPayload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// transientError marks failures worth one more attempt (timeouts, 429, 5xx).
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// ChatCompletion sends the request and returns the first choice's content.
// Transient failures are retried up to the configured attempt limit; the
// caller's context cancels the whole call including retries.
func (c *GatewayClient) ChatCompletion(ctx context.Context, req CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("chat completion requires at least one message")
	}

	payload := chatCompletionPayload{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		start := time.Now()
		content, err := c.doRequest(ctx, body)
		if err == nil {
			c.logger.Debug("gateway call completed",
				zap.Int("attempt", attempt),
				zap.Duration("duration", time.Since(start)),
				zap.Int("response_chars", len(content)),
				zap.String("excerpt", logger.TruncateForLog(content, 120)))
			return content, nil
		}

		lastErr = err
		var transient *transientError
		if !errors.As(err, &transient) {
			return "", err
		}
		c.logger.Warn("gateway call failed, may retry",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Error(err))
	}

	return "", fmt.Errorf("gateway call failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *GatewayClient) doRequest(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &transientError{fmt.Errorf("gateway request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &transientError{fmt.Errorf("failed to read gateway response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", &transientError{fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, logger.TruncateForLog(string(respBody), 200))}
	default:
		return "", fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, logger.TruncateForLog(string(respBody), 200))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("gateway response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// Probe checks that the gateway answers /v1/models. Failures are returned to
// the caller for logging; the server still starts without a reachable
// gateway since the model may come up later.
func (c *GatewayClient) Probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway model listing returned status %d", resp.StatusCode)
	}
	return nil
}
