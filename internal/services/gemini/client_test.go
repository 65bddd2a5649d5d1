package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/stockwinner/stockwinner/internal/common"
)

// fastRetryConfig keeps retry loops quick in tests.
func fastRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 1.5,
		MalformedBackoff:  time.Millisecond,
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

func newTestClient(t *testing.T, keys []string, attempts int, fn generateFunc) *Client {
	t.Helper()

	ring, err := NewKeyring(keys)
	if err != nil {
		t.Fatalf("NewKeyring() error = %v", err)
	}

	config := &common.GeminiConfig{RateLimit: "1ms"}
	client, err := NewClient(ring, config, arbor.NewLogger(),
		WithRetryConfig(fastRetryConfig(attempts)),
		WithGenerateFunc(fn))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_NoCredentials(t *testing.T) {
	_, err := NewClient(nil, &common.GeminiConfig{}, arbor.NewLogger())
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("NewClient() error = %v, want ErrNoCredentials", err)
	}
}

func TestGenerateJSON_Success(t *testing.T) {
	client := newTestClient(t, []string{"key-a"}, 3,
		func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"symbol":"2330","overallScore":85}`), nil
		})

	var out struct {
		Symbol       string `json:"symbol"`
		OverallScore int    `json:"overallScore"`
	}
	sources, err := client.GenerateJSON(context.Background(), &Request{Model: "test-model", Prompt: "analyze"}, &out)
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}

	if out.Symbol != "2330" || out.OverallScore != 85 {
		t.Errorf("unmarshaled = %+v, want symbol 2330 score 85", out)
	}
	if len(sources) != 0 {
		t.Errorf("sources = %v, want none", sources)
	}
}

func TestGenerateJSON_StripsMarkdownFences(t *testing.T) {
	client := newTestClient(t, []string{"key-a"}, 3,
		func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse("```json\n{\"symbol\":\"2317\"}\n```"), nil
		})

	var out struct {
		Symbol string `json:"symbol"`
	}
	if _, err := client.GenerateJSON(context.Background(), &Request{Model: "test-model", Prompt: "analyze"}, &out); err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if out.Symbol != "2317" {
		t.Errorf("symbol = %s, want 2317", out.Symbol)
	}
}

func TestGenerateJSON_ExtractsGroundingSources(t *testing.T) {
	resp := textResponse(`{"ok":true}`)
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://example.com/a", Title: "Example A"}},
			{Web: nil},
			{Web: &genai.GroundingChunkWeb{URI: "", Title: "no uri"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://example.com/b", Title: "Example B"}},
		},
	}

	client := newTestClient(t, []string{"key-a"}, 3,
		func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return resp, nil
		})

	var out map[string]any
	sources, err := client.GenerateJSON(context.Background(), &Request{Model: "test-model", Prompt: "analyze"}, &out)
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}

	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	if sources[0].URI != "https://example.com/a" || sources[1].Title != "Example B" {
		t.Errorf("sources = %+v", sources)
	}
}

func TestGenerateJSON_RotatesKeysAcrossAttempts(t *testing.T) {
	var usedKeys []string
	client := newTestClient(t, []string{"key-a", "key-b", "key-c"}, 3,
		func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			usedKeys = append(usedKeys, apiKey)
			return nil, errors.New("Error 429, Message: Quota exceeded")
		})

	var out map[string]any
	_, err := client.GenerateJSON(context.Background(), &Request{Model: "test-model", Prompt: "analyze"}, &out)
	if err == nil {
		t.Fatal("GenerateJSON() expected error")
	}

	want := []string{"key-a", "key-b", "key-c"}
	if len(usedKeys) != len(want) {
		t.Fatalf("used %d keys, want %d", len(usedKeys), len(want))
	}
	for i, k := range want {
		if usedKeys[i] != k {
			t.Errorf("attempt %d used %s, want %s", i+1, usedKeys[i], k)
		}
	}
}

func TestGenerateJSON_RateLimitExhaustsBudget(t *testing.T) {
	calls := 0
	client := newTestClient(t, []string{"key-a"}, 4,
		func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			calls++
			return nil, errors.New("Error 429, Message: RESOURCE_EXHAUSTED")
		})

	var out map[string]any
	_, err := client.GenerateJSON(context.Background(), &Request{Model: "test-model", Prompt: "analyze"}, &out)
	if err == nil {
		t.Fatal("GenerateJSON() expected error")
	}

	if calls != 4 {
		t.Errorf("upstream calls = %d, want 4", calls)
	}
	if !strings.Contains(err.Error(), "after 4 attempts") {
		t.Errorf("error = %v, want attempt count in message", err)
	}
}

func TestGenerateJSON_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	client := newTestClient(t, []string{"key-a"}, 5,
		func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			calls++
			return nil, errors.New("Error 400, Message: INVALID_ARGUMENT")
		})

	var out map[string]any
	_, err := client.GenerateJSON(context.Background(), &Request{Model: "test-model", Prompt: "analyze"}, &out)
	if err == nil {
		t.Fatal("GenerateJSON() expected error")
	}

	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
	if !strings.Contains(err.Error(), "INVALID_ARGUMENT") {
		t.Errorf("error = %v, want wrapped upstream error", err)
	}
}

func TestGenerateJSON_RetriesMalformedOutput(t *testing.T) {
	calls := 0
	client := newTestClient(t, []string{"key-a"}, 3,
		func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			calls++
			if calls < 3 {
				return textResponse("not json at all"), nil
			}
			return textResponse(`{"symbol":"2454"}`), nil
		})

	var out struct {
		Symbol string `json:"symbol"`
	}
	if _, err := client.GenerateJSON(context.Background(), &Request{Model: "test-model", Prompt: "analyze"}, &out); err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}

	if calls != 3 {
		t.Errorf("upstream calls = %d, want 3", calls)
	}
	if out.Symbol != "2454" {
		t.Errorf("symbol = %s, want 2454", out.Symbol)
	}
}

func TestGenerateJSON_EmptyResponseRetried(t *testing.T) {
	calls := 0
	client := newTestClient(t, []string{"key-a"}, 2,
		func(ctx context.Context, apiKey, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			calls++
			return &genai.GenerateContentResponse{}, nil
		})

	var out map[string]any
	_, err := client.GenerateJSON(context.Background(), &Request{Model: "test-model", Prompt: "analyze"}, &out)
	if err == nil {
		t.Fatal("GenerateJSON() expected error")
	}
	if calls != 2 {
		t.Errorf("upstream calls = %d, want 2", calls)
	}
}

func TestCleanMarkdownFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"uppercase fence", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanMarkdownFences(tt.input); got != tt.want {
				t.Errorf("cleanMarkdownFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
