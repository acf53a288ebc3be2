package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
)

const (
	// maxBodyPreview bounds how much of an error body is kept for diagnostics.
	maxBodyPreview = 512
	// maxResponseSize bounds how much of a success body is read.
	maxResponseSize = 1 << 20

	operation = "knowledge service request"
)

// Options configures a Client.
type Options struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	// HTTPClient is optional. Its timeout is left to the caller's context.
	HTTPClient *http.Client
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	logger *logger.Logger

	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var _ models.KnowledgeService = (*Client)(nil)

// NewClient creates a knowledge service client.
func NewClient(opts Options, logger *logger.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		logger:      logger,
		endpoint:    opts.Endpoint,
		apiKey:      opts.APIKey,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		client:      httpClient,
	}
}

// Model returns the fixed model identifier sent with every request.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the conversation and returns the first choice's content.
// Failures are *models.NetworkError or *models.MalformedResponseError.
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &models.NetworkError{Op: operation, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyPreview))
		c.logger.Warn("Knowledge service returned error status", "status", resp.StatusCode, "elapsed", time.Since(start))
		return "", &models.NetworkError{
			Op:         operation,
			StatusCode: resp.StatusCode,
			Body:       string(preview),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}
	reply, err := parseReply(raw)
	if err != nil {
		return "", err
	}
	c.logger.Debug("Knowledge service replied", "elapsed", time.Since(start), "reply_len", len(reply))
	return reply, nil
}

func parseReply(raw []byte) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &models.MalformedResponseError{Reason: "body is not valid JSON", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &models.MalformedResponseError{Reason: "no choices in response"}
	}
	msg := parsed.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", &models.MalformedResponseError{Reason: "choices[0].message.content is missing"}
	}
	reply := strings.TrimSpace(*msg.Content)
	if reply == "" {
		return "", &models.MalformedResponseError{Reason: "choices[0].message.content is empty"}
	}
	return reply, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	netErr := &models.NetworkError{Op: operation, Err: err}
	var timeout interface{ Timeout() bool }
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		netErr.Timeout = true
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		netErr.Canceled = true
	case errors.As(err, &timeout) && timeout.Timeout():
		netErr.Timeout = true
	}
	return netErr
}
