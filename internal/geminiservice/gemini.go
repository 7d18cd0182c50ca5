package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// --- Gemini API Configuration ---
const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel      = "gemini-1.5-flash"
	defaultMaxRetries = 3
	initialBackoff    = 1 * time.Second
	requestTimeout    = 60 * time.Second
	maxErrorBody      = 4 << 10
)

var (
	// ErrNotConfigured is returned when no API key is available.
	ErrNotConfigured = errors.New("gemini: GEMINI_API_KEY is not set")

	// ErrEmptyResponse is returned when the model produced no text part.
	ErrEmptyResponse = errors.New("gemini: no content found in response")
)

// APIError is a non-200 answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: API returned %s: %s", e.Status, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Generator produces text for a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents          []GeminiContent `json:"contents"`
	SystemInstruction *GeminiContent  `json:"systemInstruction,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Client calls the generateContent endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

func WithBaseURL(u string) Option          { return func(c *Client) { c.baseURL = u } }
func WithModel(m string) Option            { return func(c *Client) { c.model = m } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }
func WithMaxRetries(n int) Option          { return func(c *Client) { c.maxRetries = n } }
func WithBackoff(d time.Duration) Option   { return func(c *Client) { c.backoff = d } }

// WithRateLimit caps outgoing calls to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient builds a client for apiKey. An empty key still yields a client; every
// call then fails with ErrNotConfigured.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		maxRetries: defaultMaxRetries,
		backoff:    initialBackoff,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	// Every call makes at least one attempt.
	if c.maxRetries < 1 {
		c.maxRetries = 1
	}
	return c
}

// NewClientFromEnv reads GEMINI_API_KEY, GEMINI_MODEL and GEMINI_RPS.
func NewClientFromEnv() *Client {
	opts := []Option{}
	if m := os.Getenv("GEMINI_MODEL"); m != "" {
		opts = append(opts, WithModel(m))
	}
	if rps, err := strconv.ParseFloat(os.Getenv("GEMINI_RPS"), 64); err == nil && rps > 0 {
		opts = append(opts, WithRateLimit(rps, 1))
	}
	return NewClient(os.Getenv("GEMINI_API_KEY"), opts...)
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate sends one prompt and returns the first text part of the first candidate.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	log := zerolog.Ctx(ctx)

	if c.apiKey == "" {
		log.Error().Msg("GEMINI_API_KEY environment variable is not set")
		return "", ErrNotConfigured
	}

	payload := GeminiPayload{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: userPrompt}}},
		},
	}
	if systemPrompt != "" {
		payload.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: systemPrompt}}}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error

	// Exponential backoff retry loop
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			wait := c.backoff * time.Duration(math.Pow(2, float64(i-1)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}

		log.Debug().Int("attempt", i+1).Str("model", c.model).Msg("Calling Gemini API")

		text, err := c.do(ctx, payloadBytes)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return "", err
		}
		if errors.Is(err, ErrEmptyResponse) || ctx.Err() != nil {
			return "", err
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("Gemini attempt failed")
	}

	return "", fmt.Errorf("failed to call Gemini API after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", ErrEmptyResponse
}
