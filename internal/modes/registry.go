package modes

import (
	"fmt"
	"sort"
	"sync"

	"civic-quiz-engine/internal/domain"
)

// Registry is a name-keyed lookup of available game modes. It is an explicit
// instance constructed at startup and injected wherever modes are resolved;
// there is no package-level registry.
type Registry struct {
	mu    sync.RWMutex
	modes map[string]GameMode
}

func NewRegistry() *Registry {
	return &Registry{modes: make(map[string]GameMode)}
}

// Register adds a mode under its name. Registering the same name twice is a
// wiring bug and fails.
func (r *Registry) Register(mode GameMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modes[mode.Name()]; ok {
		return fmt.Errorf("mode %q already registered", mode.Name())
	}
	r.modes[mode.Name()] = mode
	return nil
}

// Get returns the mode registered under name.
func (r *Registry) Get(name string) (GameMode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mode, ok := r.modes[name]
	return mode, ok
}

// Resolve is Get with the lookup failure mapped to the configuration error
// engines fail fast on.
func (r *Registry) Resolve(name string) (GameMode, error) {
	mode, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrModeNotRegistered, name)
	}
	return mode, nil
}

// Names lists registered mode names in stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modes))
	for name := range r.modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a registry with all builtin modes registered.
func Default() *Registry {
	r := NewRegistry()
	for _, mode := range []GameMode{
		NewPracticeMode(),
		NewStandardMode(),
		NewAIBattleMode(),
		NewPvPMode(),
	} {
		if err := r.Register(mode); err != nil {
			// Builtin names are unique; a collision here is a programming error.
			panic(err)
		}
	}
	return r
}
