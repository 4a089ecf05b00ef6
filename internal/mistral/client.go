package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/prompts"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/scanner"
)

const (
	defaultBaseURL = "https://api.mistral.ai/v1/chat/completions"
	defaultTimeout = 30 * time.Second

	// DefaultModel runs the security analyses.
	DefaultModel = "mistral-large-latest"
	// DefaultPostModel generates social posts and key probes.
	DefaultPostModel = "mistral-small-latest"
)

const systemPrompt = "You are a security analysis assistant. Respond only in valid JSON format."

// ClientOptions configures a Client. Zero values fall back to defaults.
type ClientOptions struct {
	APIKey  string // explicit key, falls back to MISTRAL_API_KEY
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client talks to the Mistral chat completions API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewClient builds a Client. The credential resolves from opts.APIKey first,
// then the MISTRAL_API_KEY environment variable; with neither set the
// constructor fails so a request is never attempted without a token.
func NewClient(opts ClientOptions) (*Client, error) {
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("MISTRAL_API_KEY")
	}
	if key == "" {
		return nil, errors.New("mistral API key not provided and MISTRAL_API_KEY environment variable not set")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:  key,
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// APIError carries a non-2xx status returned by the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mistral API returned status %d: %s", e.StatusCode, e.Message)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze runs one analysis request of the given type against the text and
// returns the parsed, classified payload. Unknown analysis types fail before
// any network I/O. Transport, HTTP and response-parse failures come back as
// errors; the method never panics.
func (c *Client) Analyze(ctx context.Context, text, analysisType string, findings *scanner.Result) (Analysis, error) {
	tmpl, err := prompts.Get(analysisType)
	if err != nil {
		return Analysis{}, err
	}

	findingsJSON := ""
	if prompts.NeedsFindings(analysisType) {
		if findings == nil {
			return Analysis{}, fmt.Errorf("analysis type %s requires pattern findings", analysisType)
		}
		raw, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			return Analysis{}, fmt.Errorf("failed to marshal findings: %w", err)
		}
		findingsJSON = string(raw)
	}

	prompt := prompts.Render(tmpl, text, findingsJSON)
	if prompts.UsesAdvisorGuidance(analysisType) {
		prompt = prompt + "\n\nSecurity advisor guidance:\n" + prompts.AdvisorGuidance
	}

	resp, err := c.post(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.2,
		MaxTokens:      1000,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return Analysis{}, err
	}

	if len(resp.Choices) == 0 {
		return Analysis{}, errors.New("no valid response from Mistral API")
	}

	content := resp.Choices[0].Message.Content
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return Analysis{}, fmt.Errorf("failed to parse Mistral response as JSON: %w", err)
	}

	return Analysis{Kind: classify(data), Data: data}, nil
}

// GeneratePost asks the model to write a social media post for the given
// prompt and returns the generated text verbatim.
func (c *Client) GeneratePost(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = DefaultPostModel
	}

	resp, err := c.post(ctx, chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no valid response from Mistral API")
	}

	return resp.Choices[0].Message.Content, nil
}

// ValidateKey issues a minimal completion request to confirm the configured
// credential is accepted by the API.
func (c *Client) ValidateKey(ctx context.Context) error {
	_, err := c.post(ctx, chatRequest{
		Model:     DefaultPostModel,
		Messages:  []chatMessage{{Role: "user", Content: "Say 'hello'"}},
		MaxTokens: 10,
	})
	return err
}

func (c *Client) post(ctx context.Context, payload chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mistral API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErrorMessage(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}

	return &parsed, nil
}

// apiErrorMessage pulls the human-readable detail out of a failure body.
// The API reports errors both as a top-level message and nested under an
// error object; the raw body text is the last resort.
func apiErrorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error.Message != "" {
			return body.Error.Message
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return "no error detail"
}
