package provider

import (
	"context"
	"time"
)

// Provider is the generation capability consumed by reasoning strategies.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
	GenerateStream(ctx context.Context, req *GenerateRequest) (<-chan *StreamChunk, error)
}

// GenerateRequest is a single-turn generation request. A zero Temperature or
// MaxTokens means "use the provider's configured default".
type GenerateRequest struct {
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
}

// GenerateResponse is the result of one generation call.
type GenerateResponse struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	FinishReason     string `json:"finish_reason"`
}

// StreamChunk is an incremental piece of a streaming generation.
type StreamChunk struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done"`
}

// Config holds settings for a provider instance.
type Config struct {
	Name        string        `json:"name"`
	Model       string        `json:"model"`
	Endpoint    string        `json:"endpoint"`
	APIKey      string        `json:"api_key"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
)

// withDefaults fills zero request fields from the provider config.
func (c Config) withDefaults(req *GenerateRequest) (temperature float64, maxTokens int) {
	temperature = req.Temperature
	if temperature == 0 {
		temperature = c.Temperature
	}
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return temperature, maxTokens
}
