package strategy

import (
	"context"

	"github.com/nidhogg/ponder/internal/chain"
	"github.com/nidhogg/ponder/internal/provider"
	"go.uber.org/zap"
)

// Standard is the classic chain-of-thought strategy: one generation call
// with an explicit system prompt demanding numbered steps and a terminal
// "Answer:" line.
type Standard struct {
	provider provider.Provider
	logger   *zap.Logger
}

// NewStandard creates the standard strategy bound to a provider.
func NewStandard(p provider.Provider, logger *zap.Logger) *Standard {
	return &Standard{provider: p, logger: logger}
}

func (s *Standard) Name() string { return StandardName }

// Reason issues one generation call and parses the response into the chain.
func (s *Standard) Reason(ctx context.Context, query, convContext string) (*chain.ReasoningChain, error) {
	c := newChain(query, s.provider, s.Name())

	resp, err := s.provider.Generate(ctx, &provider.GenerateRequest{
		Prompt:       buildPrompt(standardPrompt, query, convContext),
		SystemPrompt: standardSystem,
	})
	if err != nil {
		return nil, err
	}

	c.TotalTokens = resp.TotalTokens
	return ParseResponse(resp.Content, c), nil
}
