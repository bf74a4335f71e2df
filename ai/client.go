package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/registry"
)

// Client is the generic OpenAI-compatible HTTP client used as the
// catch-all generation capability and as the chat backend for prompt
// enhancement. Each provider's secret rides as the bearer token; the
// base URL is shared because compatible gateways multiplex vendors
// behind one endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter // smooths outbound calls across all tasks
}

// ClientConfig configures the generic client.
type ClientConfig struct {
	BaseURL           string
	TimeoutSeconds    int
	RequestsPerSecond float64      // outbound smoothing; 0 disables
	HTTPClient        *http.Client // overrides the default transport
}

// NewClient creates a generic OpenAI-compatible client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// imageRequest matches the OpenAI images API format
type imageRequest struct {
	Model          string `json:"model,omitempty"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

// imageResponse matches the OpenAI images API format
type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// GenerateImage produces a base64 image via the images/generations endpoint.
// It satisfies GenerateFunc.
func (c *Client) GenerateImage(ctx context.Context, entry registry.ProviderEntry, prompt string, params map[string]float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "cancelled waiting for outbound rate limiter")
	}

	reqBody := imageRequest{
		Model:          entry.DisplayName,
		Prompt:         prompt,
		N:              1,
		ResponseFormat: "b64_json",
	}

	var resp imageResponse
	if err := c.post(ctx, "/v1/images/generations", entry.Secret, reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", errors.Newf("image generation failed: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", errors.New("image generation returned no image data")
	}
	return resp.Data[0].B64JSON, nil
}

// chatRequest matches the OpenAI chat completions format
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse matches the OpenAI chat completions format
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// Chat sends a system+user prompt pair and returns the completion text.
func (c *Client) Chat(ctx context.Context, entry registry.ProviderEntry, systemPrompt, userPrompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "cancelled waiting for outbound rate limiter")
	}

	reqBody := chatRequest{
		Model: chatModelFor(entry),
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	}

	var resp chatResponse
	if err := c.post(ctx, "/v1/chat/completions", entry.Secret, reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", errors.Newf("chat completion failed: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// chatModelFor picks a text-capable model id for the entry's vendor family;
// image model names are not valid chat targets.
func chatModelFor(entry registry.ProviderEntry) string {
	switch entry.Kind {
	case registry.KindOpenAI:
		return "gpt-4o-mini"
	case registry.KindGoogleGemini:
		return "gemini-2.0-flash-exp"
	default:
		return entry.DisplayName
	}
}

func (c *Client) post(ctx context.Context, path, secret string, reqBody, respBody interface{}) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("%s returned status %d: %s", path, resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return errors.Wrapf(err, "failed to unmarshal response from %s", path)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
