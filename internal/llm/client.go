// Package llm turns free-text level descriptions into an algorithm choice,
// a validated parameter set and a mission by prompting a language model.
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
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest asks the model for one structured reply. Schema, when set,
// is the JSON schema the reply must follow.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Schema      json.RawMessage
	Temperature float64
}

// Client sends chat requests to a language model service.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// DefaultOllamaURL is used when no base URL is configured.
const DefaultOllamaURL = "http://127.0.0.1:11434"

// OllamaClient talks to an Ollama server over its HTTP chat API.
type OllamaClient struct {
	client   *http.Client
	endpoint string
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []Message       `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error"`
}

// NewOllamaClient creates a client for the Ollama server at baseURL.
// The HTTP timeout is a backstop; callers bound each call with a context.
func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = DefaultOllamaURL
	}
	url = strings.TrimRight(url, "/")
	if !strings.HasSuffix(url, "/api/chat") {
		url += "/api/chat"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OllamaClient{
		client:   &http.Client{Timeout: timeout},
		endpoint: url,
	}
}

// Chat sends one non-streaming chat request and returns the reply text.
func (o *OllamaClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", fmt.Errorf("ollama chat model is required")
	}
	body, err := json.Marshal(ollamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
		Format:   req.Schema,
		Options:  map[string]any{"temperature": req.Temperature},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("ollama chat response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama chat error: %s", parsed.Error)
	}
	if strings.TrimSpace(parsed.Message.Content) == "" {
		return "", fmt.Errorf("ollama returned an empty reply")
	}
	return parsed.Message.Content, nil
}
