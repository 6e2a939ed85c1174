// Package strategy implements the reasoning strategies that turn a query
// into a structured chain: prompt construction, response parsing, and
// self-consistency voting.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nidhogg/ponder/internal/chain"
	"github.com/nidhogg/ponder/internal/provider"
	"go.uber.org/zap"
)

// Registered strategy names.
const (
	StandardName        = "standard"
	ZeroShotName        = "zero_shot"
	SelfConsistencyName = "self_consistency"
)

// ErrUnknownStrategy is a configuration error, surfaced before any
// generation call.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy turns a query (plus optional pre-formatted conversation context)
// into a reasoning chain. Implementations decide how many generation calls
// to issue and how to combine the parsed results.
type Strategy interface {
	Name() string
	Reason(ctx context.Context, query, convContext string) (*chain.ReasoningChain, error)
}

// Options carries strategy tuning knobs; zero values select defaults.
type Options struct {
	NumSamples  int     // self_consistency sample count (default 3)
	Temperature float64 // self_consistency sampling temperature (default 0.7)
}

// Factory builds a Strategy bound to a provider.
type Factory func(p provider.Provider, opts Options, logger *zap.Logger) Strategy

// Registry maps strategy names to factories. Safe for concurrent use and
// extensible at runtime.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *zap.Logger
}

// NewRegistry creates a registry pre-populated with the built-in strategies.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
	r.factories[StandardName] = func(p provider.Provider, _ Options, l *zap.Logger) Strategy {
		return NewStandard(p, l)
	}
	r.factories[ZeroShotName] = func(p provider.Provider, _ Options, l *zap.Logger) Strategy {
		return NewZeroShot(p, l)
	}
	r.factories[SelfConsistencyName] = func(p provider.Provider, opts Options, l *zap.Logger) Strategy {
		return NewSelfConsistency(p, opts, l)
	}
	return r
}

// Register adds a strategy factory under the given name, replacing any
// previous registration.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("strategy name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("strategy factory for %q must not be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	r.logger.Info("registered strategy", zap.String("name", name))
	return nil
}

// New instantiates a strategy by name, bound to the provider. Unknown names
// produce an error listing the available choices.
func (r *Registry) New(name string, p provider.Provider, opts Options) (Strategy, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownStrategy, name, strings.Join(r.Names(), ", "))
	}
	return factory(p, opts, r.logger), nil
}

// Names returns the registered strategy names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newChain creates a chain stamped with the binding's provenance.
func newChain(query string, p provider.Provider, strategyName string) *chain.ReasoningChain {
	return chain.New(query, p.Name(), p.Model(), strategyName)
}
