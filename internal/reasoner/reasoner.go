// Package reasoner exposes the single entry point for chain-of-thought
// reasoning: a façade binding one LLM provider and one strategy, with
// optional conversation memory.
package reasoner

import (
	"context"
	"fmt"
	"time"

	"github.com/nidhogg/ponder/internal/chain"
	"github.com/nidhogg/ponder/internal/provider"
	"github.com/nidhogg/ponder/internal/strategy"
	"go.uber.org/zap"
)

// Config selects and tunes the provider/strategy binding. Provider and
// Strategy are registry names; unknown names fail construction with an
// error listing the available choices.
type Config struct {
	Provider    string  // default "openai"
	Model       string  // provider default when empty
	Strategy    string  // default "standard"
	Endpoint    string  // provider default when empty
	APIKey      string  // environment fallback when empty
	Temperature float64 // default 0.7
	MaxTokens   int     // default 2048
	Timeout     time.Duration
	Memory      bool // enable conversation memory
	MemoryTurns int  // default 10
	NumSamples  int  // self_consistency only, default 3
}

// Reasoner binds a provider and a strategy and manages conversation memory.
// Construct one per session; the memory buffer is owned by the instance and
// mutated only between calls.
type Reasoner struct {
	provider     provider.Provider
	strategy     strategy.Strategy
	memory       *chain.ConversationMemory
	providerName string
	strategyName string
	logger       *zap.Logger
}

// New validates the requested provider and strategy names against the
// registries and builds the binding. Configuration errors (unknown names,
// missing credentials) are returned before any generation call is possible.
func New(cfg Config, providers *provider.Registry, strategies *strategy.Registry, logger *zap.Logger) (*Reasoner, error) {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.Strategy == "" {
		cfg.Strategy = strategy.StandardName
	}

	p, err := providers.New(cfg.Provider, provider.Config{
		Model:       cfg.Model,
		Endpoint:    cfg.Endpoint,
		APIKey:      cfg.APIKey,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	s, err := strategies.New(cfg.Strategy, p, strategy.Options{NumSamples: cfg.NumSamples})
	if err != nil {
		return nil, err
	}

	var memory *chain.ConversationMemory
	if cfg.Memory {
		memory = chain.NewConversationMemory(cfg.MemoryTurns)
	}

	return &Reasoner{
		provider:     p,
		strategy:     s,
		memory:       memory,
		providerName: cfg.Provider,
		strategyName: cfg.Strategy,
		logger:       logger,
	}, nil
}

// Reason runs the bound strategy on the query. When memory is enabled, the
// formatted conversation context is passed to the strategy, and a turn is
// recorded afterwards if the call produced a non-empty answer. Generation
// failures propagate unmodified; no retrying happens at this layer.
func (r *Reasoner) Reason(ctx context.Context, query string) (*chain.ReasoningChain, error) {
	var convContext string
	if r.memory != nil && !r.memory.IsEmpty() {
		convContext = r.memory.Context()
	}

	result, err := r.strategy.Reason(ctx, query, convContext)
	if err != nil {
		return nil, err
	}

	if r.memory != nil && result.Answer != "" {
		r.memory.AddTurn(query, result.Answer)
	}

	r.logger.Debug("reasoning complete",
		zap.String("strategy", r.strategyName),
		zap.Int("steps", result.StepCount()),
		zap.Bool("answered", result.IsComplete()))
	return result, nil
}

// ReasonStream streams the raw LLM output for the query, bypassing the
// parser entirely. Callers needing a structured chain must use Reason.
func (r *Reasoner) ReasonStream(ctx context.Context, query string) (<-chan *provider.StreamChunk, error) {
	userTemplate, systemPrompt := strategy.PromptTemplates(r.strategyName)
	return r.provider.GenerateStream(ctx, &provider.GenerateRequest{
		Prompt:       fmt.Sprintf(userTemplate, query),
		SystemPrompt: systemPrompt,
	})
}

// ClearMemory resets the conversation memory, if enabled.
func (r *Reasoner) ClearMemory() {
	if r.memory != nil {
		r.memory.Clear()
	}
}

// Memory returns the conversation memory, or nil when disabled.
func (r *Reasoner) Memory() *chain.ConversationMemory { return r.memory }

// HasMemory reports whether conversation memory is enabled.
func (r *Reasoner) HasMemory() bool { return r.memory != nil }

// Provider returns the bound provider.
func (r *Reasoner) Provider() provider.Provider { return r.provider }

// Model returns the bound provider's model identifier.
func (r *Reasoner) Model() string { return r.provider.Model() }

// Strategy returns the bound strategy's name.
func (r *Reasoner) Strategy() string { return r.strategyName }
