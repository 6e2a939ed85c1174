package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Configuration errors, distinguishable from generation failures with
// errors.Is. They are surfaced before any generation call is attempted.
var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingAPIKey   = errors.New("missing API key")
)

// Factory builds a Provider instance from a config.
type Factory func(cfg Config, logger *zap.Logger) (Provider, error)

// Registry maps provider names to factories. It is safe for concurrent use
// and extensible at runtime.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *zap.Logger
}

// NewRegistry creates a registry pre-populated with the built-in providers.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
	r.factories["openai"] = func(cfg Config, l *zap.Logger) (Provider, error) {
		return NewOpenAIProvider(cfg, l)
	}
	r.factories["anthropic"] = func(cfg Config, l *zap.Logger) (Provider, error) {
		return NewAnthropicProvider(cfg, l)
	}
	return r
}

// Register adds a provider factory under the given name, replacing any
// previous registration.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("provider name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("provider factory for %q must not be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	r.logger.Info("registered provider", zap.String("name", name))
	return nil
}

// New instantiates a provider by name. Unknown names produce an error that
// lists the available choices.
func (r *Registry) New(name string, cfg Config) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownProvider, name, strings.Join(r.Names(), ", "))
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	return factory(cfg, r.logger)
}

// Names returns the registered provider names, sorted.
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
