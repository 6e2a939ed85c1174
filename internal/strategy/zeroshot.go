package strategy

import (
	"context"

	"github.com/nidhogg/ponder/internal/chain"
	"github.com/nidhogg/ponder/internal/provider"
	"go.uber.org/zap"
)

// ZeroShot appends "Let's think step by step." to the bare query with no
// formatting instructions. Parsing has to cope with whatever structure the
// model volunteers.
type ZeroShot struct {
	provider provider.Provider
	logger   *zap.Logger
}

// NewZeroShot creates the zero-shot strategy bound to a provider.
func NewZeroShot(p provider.Provider, logger *zap.Logger) *ZeroShot {
	return &ZeroShot{provider: p, logger: logger}
}

func (s *ZeroShot) Name() string { return ZeroShotName }

// Reason issues one generation call and parses the response into the chain.
func (s *ZeroShot) Reason(ctx context.Context, query, convContext string) (*chain.ReasoningChain, error) {
	c := newChain(query, s.provider, s.Name())

	resp, err := s.provider.Generate(ctx, &provider.GenerateRequest{
		Prompt:       buildPrompt(zeroShotPrompt, query, convContext),
		SystemPrompt: zeroShotSystem,
	})
	if err != nil {
		return nil, err
	}

	c.TotalTokens = resp.TotalTokens
	return ParseResponse(resp.Content, c), nil
}
