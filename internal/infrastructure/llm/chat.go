package llm

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

	"GuideBuilder/internal/config"
	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

const errorBodyLimit = 1024

// ChatClient implements ports.TextGenerator backed by OpenAI-compatible APIs.
type ChatClient struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	httpClient  *http.Client
}

var _ ports.TextGenerator = (*ChatClient)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewChatClient builds a client from configuration; a nil httpClient gets the configured timeout.
func NewChatClient(cfg config.OpenAIConfig, httpClient *http.Client) *ChatClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &ChatClient{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		httpClient:  httpClient,
	}
}

// Generate sends prompt as a single user message and returns the first choice.
func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "generate text"
	if c == nil {
		return "", fmt.Errorf("chat client is nil")
	}
	if c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("chat client misconfigured")
	}

	req := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if c.temperature > 0 {
		t := c.temperature
		req.Temperature = &t
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.TransportError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		var cause error
		if text := strings.TrimSpace(string(payload)); text != "" {
			cause = errors.New(text)
		}
		return "", domain.TransportError(op, resp.StatusCode, cause)
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", domain.ProtocolError(op, "decode response", err)
	}
	if payload.Error != nil {
		return "", domain.ProtocolError(op, "model error: "+payload.Error.Message, nil)
	}
	if len(payload.Choices) == 0 {
		return "", domain.ProtocolError(op, "empty response", nil)
	}
	return payload.Choices[0].Message.Content, nil
}
