package tool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry holds the runners available to the agent, keyed by tool
// name. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]*Runner
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{runners: make(map[string]*Runner)}
}

// Register adds a runner under its tool name. Registering the same
// name again replaces the previous runner; the last registration wins.
func (reg *Registry) Register(r *Runner) {
	name := r.Name()

	reg.mu.Lock()
	_, existed := reg.runners[name]
	reg.runners[name] = r
	reg.mu.Unlock()

	if existed {
		log.Warn().Str("tool", name).Msg("tool re-registered, previous runner replaced")
	} else {
		log.Debug().Str("tool", name).Msg("tool registered")
	}
}

// Get returns the runner for name, or false when no tool with that
// name is registered.
func (reg *Registry) Get(name string) (*Runner, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.runners[name]
	return r, ok
}

// Names returns the registered tool names in sorted order.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.runners))
	for name := range reg.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns the descriptors of all registered tools, sorted
// by name.
func (reg *Registry) Descriptors() []Descriptor {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	descs := make([]Descriptor, 0, len(reg.runners))
	for _, r := range reg.runners {
		descs = append(descs, r.tool.Descriptor())
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })
	return descs
}

// CloseAll closes every registered runner. A failing Close does not
// stop the sweep; all errors are joined and returned after every tool
// has been given the chance to shut down.
func (reg *Registry) CloseAll() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var errs []error
	for name, r := range reg.runners {
		if err := r.Close(); err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("tool close failed")
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
	}
	reg.runners = make(map[string]*Runner)
	return errors.Join(errs...)
}
