package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	_, err := r.New("mistral", Config{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("got %v, want ErrUnknownProvider", err)
	}
	if !strings.Contains(err.Error(), "anthropic") || !strings.Contains(err.Error(), "openai") {
		t.Errorf("error should list built-in providers: %v", err)
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	got := r.Names()
	want := []string{"anthropic", "openai"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	if err := r.Register("", nil); err == nil {
		t.Error("empty name must be rejected")
	}
	if err := r.Register("local", nil); err == nil {
		t.Error("nil factory must be rejected")
	}
	err := r.Register("local", func(cfg Config, l *zap.Logger) (Provider, error) {
		return NewOpenAIProvider(Config{Name: cfg.Name, APIKey: "local", Endpoint: "http://localhost:11434/v1"}, l)
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	p, err := r.New("local", Config{})
	if err != nil {
		t.Fatalf("New(local): %v", err)
	}
	if p == nil {
		t.Fatal("nil provider")
	}
}

func TestOpenAIMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewOpenAIProvider(Config{Name: "openai"}, zap.NewNop())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("got %v, want ErrMissingAPIKey", err)
	}
}

func TestAnthropicMissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewAnthropicProvider(Config{Name: "anthropic"}, zap.NewNop())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("got %v, want ErrMissingAPIKey", err)
	}
}

func TestOpenAIDefaults(t *testing.T) {
	p, err := NewOpenAIProvider(Config{APIKey: "k"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	if p.Model() != "gpt-4o" {
		t.Errorf("got model %q, want gpt-4o", p.Model())
	}
	if p.Name() != "openai" {
		t.Errorf("got name %q", p.Name())
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var gotReq openAIRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("got path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{
			"id": "cmpl-1",
			"model": "gpt-4o",
			"choices": [{"message": {"role": "assistant", "content": "Step 1: ok\nAnswer: 36"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30}
		}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", Endpoint: srv.URL, Model: "gpt-4o"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	resp, err := p.Generate(context.Background(), &GenerateRequest{
		Prompt:       "What is 15% of 240?",
		SystemPrompt: "You are a reasoning assistant.",
		Temperature:  0.2,
		MaxTokens:    512,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("got auth %q", gotAuth)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("got messages %+v", gotReq.Messages)
	}
	if gotReq.Temperature != 0.2 || gotReq.MaxTokens != 512 {
		t.Errorf("got temperature %v maxTokens %d", gotReq.Temperature, gotReq.MaxTokens)
	}
	if resp.Content != "Step 1: ok\nAnswer: 36" {
		t.Errorf("got content %q", resp.Content)
	}
	if resp.TotalTokens != 30 || resp.FinishReason != "stop" {
		t.Errorf("got tokens %d finish %q", resp.TotalTokens, resp.FinishReason)
	}
}

func TestOpenAIGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "k", Endpoint: srv.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	_, err = p.Generate(context.Background(), &GenerateRequest{Prompt: "q"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("got %v, want API error carrying status", err)
	}
}

func TestOpenAIGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "k", Endpoint: srv.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	ch, err := p.GenerateStream(context.Background(), &GenerateRequest{Prompt: "q"})
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}

	var content string
	var done bool
	for chunk := range ch {
		if chunk.Done {
			done = true
			continue
		}
		content += chunk.Content
	}
	if content != "Hello world" {
		t.Errorf("got content %q, want %q", content, "Hello world")
	}
	if !done {
		t.Error("stream never signalled completion")
	}
}

func TestAnthropicGenerate(t *testing.T) {
	var gotVersion, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("got path %q", r.URL.Path)
		}
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		fmt.Fprint(w, `{
			"id": "msg-1",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Answer: 42"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 15, "output_tokens": 5}
		}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(Config{APIKey: "key", Endpoint: srv.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	resp, err := p.Generate(context.Background(), &GenerateRequest{Prompt: "q", SystemPrompt: "sys"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotKey != "key" || gotVersion == "" {
		t.Errorf("got key %q version %q", gotKey, gotVersion)
	}
	if resp.Content != "Answer: 42" {
		t.Errorf("got content %q", resp.Content)
	}
	if resp.TotalTokens != 20 {
		t.Errorf("got tokens %d, want input+output (20)", resp.TotalTokens)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Temperature: 0, MaxTokens: 0}
	temperature, maxTokens := cfg.withDefaults(&GenerateRequest{})
	if temperature != 0.7 || maxTokens != 2048 {
		t.Errorf("got (%v, %d), want (0.7, 2048)", temperature, maxTokens)
	}

	cfg = Config{Temperature: 0.3, MaxTokens: 100}
	temperature, maxTokens = cfg.withDefaults(&GenerateRequest{Temperature: 0.9, MaxTokens: 50})
	if temperature != 0.9 || maxTokens != 50 {
		t.Errorf("request overrides lost: got (%v, %d)", temperature, maxTokens)
	}
}

func TestGenerateHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "k", Endpoint: srv.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Generate(ctx, &GenerateRequest{Prompt: "q"}); err == nil {
		t.Fatal("expected context deadline error")
	}
}
