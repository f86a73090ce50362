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

	"engram/internal/domain"
	"engram/internal/ports"
)

// Client talks to an OpenAI-compatible chat-completions endpoint. Both the
// OpenAI and DeepSeek providers are instances of it.
type Client struct {
	name       string
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.ChatProvider = (*Client)(nil)

// NewClient builds a provider client from credentials.
func NewClient(name, baseURL, model, apiKey string) *Client {
	return &Client{
		name:       name,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Name identifies the provider inside the router map.
func (c *Client) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// Chat posts the exchange and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, messages []domain.Message, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" || c.baseURL == "" || c.model == "" {
		return "", &domain.LLMError{Provider: c.name, Err: fmt.Errorf("client misconfigured")}
	}

	payload := chatRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages:    make([]chatMessage, len(messages)),
	}
	for i, m := range messages {
		payload.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &domain.LLMError{Provider: c.name, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &domain.LLMError{Provider: c.name, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.LLMError{Provider: c.name, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &domain.LLMError{
			Provider: c.name,
			Err:      fmt.Errorf("upstream %s: %s", resp.Status, strings.TrimSpace(string(excerpt))),
		}
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &domain.LLMError{Provider: c.name, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(decoded.Choices) == 0 {
		return "", &domain.LLMError{Provider: c.name, Err: fmt.Errorf("empty choices")}
	}

	return decoded.Choices[0].Message.Content, nil
}
