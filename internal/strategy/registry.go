package strategy

import (
	"fmt"
	"sync"

	"smartswapSimulator/internal/ports"
)

// Registry maps strategy identifiers to implementations. Strategies are
// registered explicitly at composition time; there is no runtime scanning.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]ports.Strategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]ports.Strategy)}
}

// Register adds a strategy under its own name. Registering the same name
// twice is a wiring mistake and fails.
func (r *Registry) Register(s ports.Strategy) error {
	if s == nil {
		return fmt.Errorf("cannot register a nil strategy")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("cannot register a strategy with an empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("strategy %q is already registered", name)
	}
	r.strategies[name] = s
	return nil
}

// Get resolves a strategy by name. An unknown name is a configuration error.
func (r *Registry) Get(name string) (ports.Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q: %w", name, ports.ErrConfiguration)
	}
	return s, nil
}

// Names returns the registered strategy identifiers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	return names
}
