package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"longform/internal/config"
)

// Client talks to an OpenAI-compatible HTTP endpoint. It makes exactly
// one attempt per call and reports typed errors; retry policy belongs to
// the caller.
type Client struct {
	cfg    config.LLMConfig
	client *http.Client
}

func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// generateRequest covers the three wire shapes with omitempty: legacy
// prompt, chat messages, and messages with a token cap.
type generateRequest struct {
	Model     string        `json:"model"`
	Prompt    string        `json:"prompt,omitempty"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages,omitempty"`
}

type generateResponse struct {
	Text    string `json:"text"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Complete posts the prompt and returns the first usable text field of
// the answer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	url := c.generateURL()
	raw, err := c.post(ctx, url, c.buildRequest(url, prompt))
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ParseError{Reason: "response is not valid JSON: " + err.Error()}
	}
	return extractText(&parsed)
}

// generateURL resolves the endpoint: an explicit generate_path wins,
// otherwise the path is inferred conservatively from the base URL shape.
func (c *Client) generateURL() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	path := strings.TrimSpace(c.cfg.GeneratePath)
	if path != "" {
		if strings.HasPrefix(path, "/") {
			return base + path
		}
		return base + "/" + path
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/generate"
	}
	if strings.HasSuffix(base, "/anthropic") {
		return base + "/v1/messages"
	}
	return base
}

func (c *Client) buildRequest(url, prompt string) generateRequest {
	lowered := strings.ToLower(url)
	switch {
	case strings.Contains(lowered, "/anthropic/v1/messages") || strings.HasSuffix(lowered, "/v1/messages"):
		return generateRequest{
			Model:     c.cfg.Model,
			MaxTokens: 1024,
			Messages:  []chatMessage{{Role: "user", Content: prompt}},
		}
	case strings.Contains(lowered, "/chat/completions"):
		return generateRequest{
			Model:    c.cfg.Model,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
		}
	}
	return generateRequest{Model: c.cfg.Model, Prompt: prompt}
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	apiKey, err := ResolveAPIKey(c.cfg.APIKeyEnv)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeader(req, apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &TransportError{URL: url, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

// setAuthHeader understands "bearer" and friends; any other auth_type is
// used verbatim as the header name.
func (c *Client) setAuthHeader(req *http.Request, apiKey string) {
	authType := strings.TrimSpace(c.cfg.AuthType)
	if authType == "" {
		authType = "bearer"
	}
	switch strings.ToLower(authType) {
	case "bearer", "authorization", "auth":
		req.Header.Set("Authorization", "Bearer "+apiKey)
	default:
		req.Header.Set(authType, apiKey)
	}
}

func extractText(r *generateResponse) (string, error) {
	if strings.TrimSpace(r.Text) != "" {
		return r.Text, nil
	}
	if len(r.Choices) > 0 {
		first := r.Choices[0]
		if strings.TrimSpace(first.Message.Content) != "" {
			return first.Message.Content, nil
		}
		if strings.TrimSpace(first.Text) != "" {
			return first.Text, nil
		}
	}
	for _, block := range r.Content {
		if strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", &ParseError{Reason: "response carries no text field"}
}

// ScorePerplexity posts text to the logprobs endpoint and returns
// exp(-mean(logprobs)). Every failure wraps ErrPerplexityUnavailable so
// callers can treat the metric as optional.
func (c *Client) ScorePerplexity(ctx context.Context, pcfg config.PerplexityConfig, text string) (float64, error) {
	payload := map[string]any{
		"model":        c.cfg.Model,
		pcfg.TextField: text,
	}

	raw, err := c.post(ctx, pcfg.Endpoint, payload)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPerplexityUnavailable, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return 0, fmt.Errorf("%w: response is not valid JSON", ErrPerplexityUnavailable)
	}

	var logprobs []float64
	if rawList, ok := fields[pcfg.LogprobsField]; ok {
		if err := json.Unmarshal(rawList, &logprobs); err != nil {
			return 0, fmt.Errorf("%w: field %q is not a number list", ErrPerplexityUnavailable, pcfg.LogprobsField)
		}
	}
	if len(logprobs) == 0 {
		return 0, fmt.Errorf("%w: field %q is empty or missing", ErrPerplexityUnavailable, pcfg.LogprobsField)
	}

	sum := 0.0
	for _, lp := range logprobs {
		sum += lp
	}
	return math.Exp(-sum / float64(len(logprobs))), nil
}

// PerplexityScorer binds a client to one perplexity endpoint config.
type PerplexityScorer struct {
	Client *Client
	Config config.PerplexityConfig
}

func (s *PerplexityScorer) Score(ctx context.Context, text string) (float64, error) {
	return s.Client.ScorePerplexity(ctx, s.Config, text)
}
