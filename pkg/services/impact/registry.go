package impact

import (
	"fmt"
	"sort"
	"sync"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
)

// ModelFactory returns a fresh, unconfigured model
type ModelFactory func() Model

// Registry manages impact model factories keyed by model identifier
type Registry interface {
	// Register adds a new model factory
	Register(identifier string, factory ModelFactory) error
	// Create instantiates an unconfigured model for the identifier
	Create(identifier string) (Model, error)
	// List returns the registered identifiers in lexical order
	List() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]ModelFactory
}

// NewRegistry creates a registry pre-populated with the given factories
func NewRegistry(factories map[string]ModelFactory) Registry {
	r := &registry{
		factories: make(map[string]ModelFactory, len(factories)),
	}
	for id, f := range factories {
		r.factories[id] = f
	}
	return r
}

func (r *registry) Register(identifier string, factory ModelFactory) error {
	if identifier == "" {
		return fmt.Errorf("model identifier cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[identifier]; exists {
		return fmt.Errorf("model %q is already registered", identifier)
	}

	r.factories[identifier] = factory
	return nil
}

func (r *registry) Create(identifier string) (Model, error) {
	r.mu.RLock()
	factory, exists := r.factories[identifier]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: model %q is not registered", domain.ErrConfiguration, identifier)
	}

	return factory(), nil
}

func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
