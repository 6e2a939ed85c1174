package strategy

import (
	"context"
	"fmt"
	"sync"

	"github.com/nidhogg/ponder/internal/chain"
	"github.com/nidhogg/ponder/internal/provider"
	"go.uber.org/zap"
)

const (
	defaultNumSamples        = 3
	defaultSampleTemperature = 0.7
)

// SelfConsistency generates several independent reasoning paths with a
// non-zero temperature and majority-votes over their answers (Wang et al.,
// 2022). Samples run concurrently; the call suspends until all complete,
// and an error in any sample fails the whole vote.
type SelfConsistency struct {
	provider    provider.Provider
	numSamples  int
	temperature float64
	logger      *zap.Logger
}

// NewSelfConsistency creates the self-consistency strategy bound to a
// provider.
func NewSelfConsistency(p provider.Provider, opts Options, logger *zap.Logger) *SelfConsistency {
	numSamples := opts.NumSamples
	if numSamples <= 0 {
		numSamples = defaultNumSamples
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = defaultSampleTemperature
	}
	return &SelfConsistency{
		provider:    p,
		numSamples:  numSamples,
		temperature: temperature,
		logger:      logger,
	}
}

func (s *SelfConsistency) Name() string { return SelfConsistencyName }

// Reason issues numSamples identical generation calls concurrently, parses
// each response into its own throwaway chain, and votes over the samples
// that produced a non-empty answer. Token usage is summed across all
// samples whether or not they produced a usable answer.
func (s *SelfConsistency) Reason(ctx context.Context, query, convContext string) (*chain.ReasoningChain, error) {
	final := newChain(query, s.provider, s.Name())
	prompt := buildPrompt(selfConsistencyPrompt, query, convContext)

	samples := make([]*chain.ReasoningChain, s.numSamples)
	tokens := make([]int, s.numSamples)
	errs := make([]error, s.numSamples)

	var wg sync.WaitGroup
	for i := 0; i < s.numSamples; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := s.provider.Generate(ctx, &provider.GenerateRequest{
				Prompt:       prompt,
				SystemPrompt: selfConsistencySystem,
				Temperature:  s.temperature,
			})
			if err != nil {
				errs[i] = err
				return
			}
			tokens[i] = resp.TotalTokens
			samples[i] = ParseResponse(resp.Content, chain.New(query, "", "", ""))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("sample generation failed: %w", err)
		}
	}

	total := 0
	var candidates []Candidate
	for i, sample := range samples {
		total += tokens[i]
		if sample.Answer != "" {
			candidates = append(candidates, Candidate{
				Normalized: NormalizeAnswer(sample.Answer),
				Original:   sample.Answer,
			})
		}
	}
	final.TotalTokens = total

	if len(candidates) == 0 {
		// Nothing voted: return the chain with only the token total set.
		s.logger.Warn("no sample produced an answer",
			zap.String("query", query),
			zap.Int("samples", s.numSamples))
		return final, nil
	}

	answer, confidence := MajorityVote(candidates)
	final.SetAnswer(answer, confidence)

	final.AddStep(fmt.Sprintf("Generated %d independent reasoning paths", s.numSamples), 1.0)
	final.AddStep("Answer distribution: "+voteDistribution(candidates), 1.0)
	final.AddStep(fmt.Sprintf("Selected answer '%s' with %.0f%% confidence", answer, confidence*100), 1.0)

	paths := make([]map[string]interface{}, 0, len(samples))
	for _, sample := range samples {
		paths = append(paths, map[string]interface{}{
			"steps":  sample.Steps,
			"answer": sample.Answer,
		})
	}
	final.Metadata["reasoning_paths"] = paths
	final.Metadata["failed_samples"] = s.numSamples - len(candidates)

	return final, nil
}
