package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/civimon/civimon/internal/model"
)

// EnvAPIKey is the environment variable holding the classifier API key.
// The key is never read from the config file.
const EnvAPIKey = "CIVIMON_LLM_API_KEY"

// ErrMissingAPIKey is returned when no API key is available.
var ErrMissingAPIKey = errors.New("classifier API key not set (" + EnvAPIKey + ")")

// ErrEmptyResponse is returned when the API answers without any choices.
var ErrEmptyResponse = errors.New("classifier returned no choices")

// Client talks to an OpenAI-compatible chat-completions endpoint and turns
// document text into a structured Classification. The core treats the
// response as opaque: it is decoded, lightly sanitized, and stored.
type Client struct {
	httpClient *http.Client
	endpoint   string
	modelName  string
	maxChars   int
	apiKey     string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint sets the chat-completions URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithModel sets the model name sent with each request.
func WithModel(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.modelName = name
		}
	}
}

// WithMaxChars sets the character budget for document text.
func WithMaxChars(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClientLogger sets the classification logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a classifier client. The API key comes from the
// environment, never from configuration files.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		endpoint:   "https://api.openai.com/v1/chat/completions",
		modelName:  "gpt-4o-mini",
		maxChars:   24000,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Request is the metadata and text for one classification call.
type Request struct {
	URL          string
	Title        string
	Jurisdiction string
	DocType      model.DocType
	Text         string
}

// chatRequest is the OpenAI-compatible request payload.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the response the client reads.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends one document to the classifier and decodes the structured
// result. Text beyond the character budget is truncated symmetrically,
// keeping the head and tail.
func (c *Client) Classify(ctx context.Context, req Request) (*model.Classification, error) {
	payload := chatRequest{
		Model: c.modelName,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req, Truncate(req.Text, c.maxChars))},
		},
		Temperature: 0.1,
	}
	payload.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classification request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create classification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(detail))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	var result model.Classification
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("classifier content is not valid JSON: %w", err)
	}
	sanitize(&result)

	c.logger.Debug("classified document",
		"url", req.URL,
		"category", result.Category,
		"elapsed", time.Since(start),
	)
	return &result, nil
}

// sanitize enforces the response contract: confidence in [0, 1] and the
// summary capped at 1200 characters.
func sanitize(c *model.Classification) {
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	if len(c.Summary) > 1200 {
		c.Summary = c.Summary[:1200]
	}
}
