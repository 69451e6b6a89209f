package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"aria/internal/intent"
)

// ErrUnimplemented reports a function key the catalog recognizes but no
// handler implements. The loop surfaces it as a spoken "not implemented"
// notice; a proactivity check returning it is skipped without a timestamp
// update.
var ErrUnimplemented = errors.New("not implemented")

// ErrExit signals a confirmed shutdown request from the general handler.
// The loop treats it as a clean stop, not a failure.
var ErrExit = errors.New("exit requested")

// Handler is implemented by every use-case family.
type Handler interface {
	// Trigger dispatches a matched utterance to the handler's function.
	Trigger(ctx context.Context, match intent.Match) error
	// CheckProactivity lets the family volunteer information. Families
	// with nothing to volunteer return ErrUnimplemented.
	CheckProactivity(ctx context.Context) error
}

// Registry maps use-case families to their handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Family]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Family]Handler)}
}

// Register binds a family to its handler. Re-registering a family is a
// programming error.
func (r *Registry) Register(family Family, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[family]; exists {
		return fmt.Errorf("handler already registered: %s", family)
	}
	r.handlers[family] = handler
	return nil
}

// Get returns the handler for family.
func (r *Registry) Get(family Family) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[family]
	if !ok {
		return nil, fmt.Errorf("no handler for use case: %s", family)
	}
	return handler, nil
}

// Families returns the registered families, sorted for determinism.
func (r *Registry) Families() []Family {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var families []Family
	for family := range r.handlers {
		families = append(families, family)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	return families
}

// ValidateAgainst checks that the registry serves exactly the use-case tags
// present in the catalog.
func (r *Registry) ValidateAgainst(catalog *intent.Catalog) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := catalog.UseCases()
	if len(tags) != len(r.handlers) {
		return fmt.Errorf("catalog has %d use cases, registry has %d handlers", len(tags), len(r.handlers))
	}
	for _, tag := range tags {
		if _, ok := r.handlers[Family(tag)]; !ok {
			return fmt.Errorf("catalog use case %q has no registered handler", tag)
		}
	}
	return nil
}
