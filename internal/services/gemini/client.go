package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/stockwinner/stockwinner/internal/common"
	"github.com/stockwinner/stockwinner/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Request describes one structured-output generation call.
type Request struct {
	Model          string
	Prompt         string
	System         string
	Schema         *genai.Schema
	ThinkingBudget *int32
	Temperature    *float32
	UseSearch      bool
}

// Generator is the narrow interface services consume. It generates a
// schema-constrained JSON response, unmarshals it into out and returns
// the grounding sources.
type Generator interface {
	GenerateJSON(ctx context.Context, req *Request, out any) ([]models.Source, error)
}

// generateFunc performs one upstream call. Swapped out in tests.
type generateFunc func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client calls the Gemini API with credential rotation, request
// pacing and bounded retry.
type Client struct {
	keys     *Keyring
	retry    *RetryConfig
	limiter  *rate.Limiter
	logger   arbor.ILogger
	generate generateFunc
}

// Option customizes a Client.
type Option func(*Client)

// WithGenerateFunc overrides the upstream call, for tests.
func WithGenerateFunc(fn generateFunc) Option {
	return func(c *Client) {
		c.generate = fn
	}
}

// WithRetryConfig overrides the retry/backoff settings.
func WithRetryConfig(retry *RetryConfig) Option {
	return func(c *Client) {
		c.retry = retry
	}
}

// NewClient creates a Gemini client. The keyring must be non-empty;
// construction fails fast otherwise.
func NewClient(keys *Keyring, config *common.GeminiConfig, logger arbor.ILogger, opts ...Option) (*Client, error) {
	if keys == nil || keys.Size() == 0 {
		return nil, ErrNoCredentials
	}

	retry := NewDefaultRetryConfig()
	if config.MaxAttempts > 0 {
		retry.MaxAttempts = config.MaxAttempts
	}

	c := &Client{
		keys:     keys,
		retry:    retry,
		limiter:  rate.NewLimiter(rate.Every(common.DurationOrDefault(config.RateLimit, 4*time.Second)), 1),
		logger:   logger,
		generate: callGeminiAPI,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GenerateJSON runs one generation request with retry. Rate-limit
// errors and malformed model output are retried under the same attempt
// budget, rotating credentials on the way; any other upstream error
// propagates after a single attempt.
func (c *Client) GenerateJSON(ctx context.Context, req *Request, out any) ([]models.Source, error) {
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		config.Temperature = req.Temperature
	}
	if req.ThinkingBudget != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: req.ThinkingBudget}
	}
	if req.UseSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoffFor(attempt-1, lastErr)
			c.logger.Warn().
				Int("attempt", attempt+1).
				Str("model", req.Model).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("Retrying Gemini API call")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.generate(ctx, c.keys.Next(), req.Model, contents, config)
		if err != nil {
			if !IsRateLimitError(err) {
				return nil, fmt.Errorf("gemini call failed: %w", err)
			}
			lastErr = err
			continue
		}

		text := responseText(resp)
		if text == "" {
			lastErr = fmt.Errorf("empty response from Gemini API")
			continue
		}

		cleaned := cleanMarkdownFences(text)
		if err := json.Unmarshal([]byte(cleaned), out); err != nil {
			lastErr = fmt.Errorf("malformed model output: %w", err)
			continue
		}

		return extractSources(resp), nil
	}

	return nil, fmt.Errorf("gemini call failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

// backoffFor picks the wait before the next attempt. Rate limits use
// the exponential schedule seeded with the API-suggested delay;
// malformed-output retries use a short linear backoff.
func (c *Client) backoffFor(attempt int, lastErr error) time.Duration {
	if IsRateLimitError(lastErr) {
		return c.retry.CalculateBackoff(attempt, ExtractRetryDelay(lastErr))
	}
	return time.Duration(attempt+1) * c.retry.MalformedBackoff
}

// callGeminiAPI builds a client bound to the given key and performs
// the call. A fresh client per call keeps credential rotation simple.
func callGeminiAPI(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return client.Models.GenerateContent(ctx, model, contents, config)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String()
}

// extractSources collects web citations from grounding metadata.
// Chunks without a web reference are dropped.
func extractSources(resp *genai.GenerateContentResponse) []models.Source {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil || gm.GroundingChunks == nil {
		return nil
	}

	var sources []models.Source
	for _, chunk := range gm.GroundingChunks {
		if chunk.Web != nil && chunk.Web.URI != "" {
			sources = append(sources, models.Source{
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			})
		}
	}
	return sources
}

// fenceRegex strips a ```json ... ``` wrapper around the whole payload.
var fenceRegex = regexp.MustCompile("(?s)^\\s*```(?:json|JSON)?\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// cleanMarkdownFences removes Markdown code fences the model sometimes
// wraps around JSON output despite the declared MIME type.
func cleanMarkdownFences(text string) string {
	if matches := fenceRegex.FindStringSubmatch(text); len(matches) == 2 {
		return strings.TrimSpace(matches[1])
	}

	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

var _ Generator = (*Client)(nil)
