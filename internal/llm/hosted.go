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
)

// ErrNoAPIKey marks the hosted tier as unconfigured rather than broken.
var ErrNoAPIKey = errors.New("hosted tier has no API key configured")

// HostedClient talks to an OpenAI-compatible chat completions endpoint.
// Without an API key both Generate and Probe fail immediately, so the
// selector falls through without waiting on the network.
type HostedClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewHostedClient creates a client from config, filling in defaults for
// any empty fields.
func NewHostedClient(cfg HostedConfig) *HostedClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = DefaultConfig().Hosted.Timeout()
	}
	return &HostedClient{
		baseURL:    base,
		model:      model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (c *HostedClient) Name() string { return "hosted" }

// Generate runs one chat completion with the prompt as a single user
// message and returns the first choice's content.
func (c *HostedClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.7,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("hosted request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("hosted endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("hosted endpoint returned no content")
	}

	return out.Choices[0].Message.Content, nil
}

// Probe checks credentials and reachability via the models endpoint.
func (c *HostedClient) Probe(ctx context.Context) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hosted endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hosted models returned status %d", resp.StatusCode)
	}
	return nil
}
