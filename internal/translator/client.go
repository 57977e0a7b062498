package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/subtran/internal"
)

const maxErrorBody = 4 << 10

// Client streams chat completions from an OpenAI-compatible endpoint.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The default has no timeout so a
// long stream is only ever ended by its context.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream sends one chat completion request and accumulates the streamed
// deltas. onDelta, if set, receives the full accumulated text after each
// delta. Any returned error is a *internal.TranslationError; its Partial
// field carries text received before the failure.
func (c *Client) Stream(ctx context.Context, cfg Config, req Request, onDelta func(string)) (string, error) {
	if ctx.Err() != nil {
		return "", internal.AbortError("")
	}

	payload, err := json.Marshal(chatRequest{
		Model: cfg.model(),
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Stream: true,
	})
	if err != nil {
		return "", internal.NewTranslationError(internal.UnknownError, 0,
			fmt.Sprintf("failed to marshal request: %v", err), false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.endpoint("/chat/completions"), bytes.NewReader(payload))
	if err != nil {
		return "", internal.NewTranslationError(internal.UnknownError, 0,
			fmt.Sprintf("failed to create request: %v", err), false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", internal.AbortError("")
		}
		return "", internal.NewTranslationError(internal.NetworkError, 0,
			fmt.Sprintf("request failed: %v", err), true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		te := classifyStatus(resp.StatusCode, resp.Status, body)
		c.logger.Debug("chat completion rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(te.Kind)))
		return "", te
	}

	return c.consume(ctx, resp.Body, onDelta)
}

func (c *Client) consume(ctx context.Context, body io.Reader, onDelta func(string)) (string, error) {
	events := newEventReader(body)
	var acc strings.Builder

	for {
		if ctx.Err() != nil {
			return "", internal.AbortError(acc.String())
		}

		data, err := events.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", internal.AbortError(acc.String())
			}
			te := internal.NewTranslationError(internal.NetworkError, 0,
				fmt.Sprintf("stream interrupted: %v", err), true, err)
			te.Partial = acc.String()
			return "", te
		}

		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		if data == doneSentinel {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			te := internal.NewTranslationError(internal.StreamParseError, 0,
				fmt.Sprintf("malformed stream event: %v", err), false, err)
			te.Partial = acc.String()
			return "", te
		}
		if chunk.Error != nil {
			te := internal.NewTranslationError(internal.APIError, 0, chunk.Error.Message, false, nil)
			te.Partial = acc.String()
			return "", te
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		acc.WriteString(chunk.Choices[0].Delta.Content)
		if onDelta != nil {
			onDelta(acc.String())
		}
	}

	text := acc.String()
	if strings.TrimSpace(text) == "" {
		return "", internal.NewTranslationError(internal.UnknownError, 0, "empty completion", false, nil)
	}
	return text, nil
}
