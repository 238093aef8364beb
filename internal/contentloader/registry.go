package contentloader

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"sync"
)

// DataLoader is the type-erased view of a Loader that a Registry holds.
type DataLoader interface {
	Pattern() string
	Watches(relPath string) bool
	LoadData(ctx context.Context, fsys fs.FS) (any, error)
}

// Registry maps data asset names (e.g. "posts") to the loaders that produce
// them.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]DataLoader
}

func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]DataLoader)}
}

func (r *Registry) Register(name string, l DataLoader) error {
	if name == "" {
		return fmt.Errorf("data loader name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loaders[name]; exists {
		return fmt.Errorf("data loader %q is already registered", name)
	}
	r.loaders[name] = l
	return nil
}

func (r *Registry) MustRegister(name string, l DataLoader) {
	if err := r.Register(name, l); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (DataLoader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[name]
	return l, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Affected returns the sorted names of the loaders whose pattern matches
// relPath.
func (r *Registry) Affected(relPath string) []string {
	var names []string
	for _, name := range r.Names() {
		if l, ok := r.Get(name); ok && l.Watches(relPath) {
			names = append(names, name)
		}
	}
	return names
}

// Load runs the named loaders (all of them when names is empty) against fsys
// and returns their data keyed by name.
func (r *Registry) Load(ctx context.Context, fsys fs.FS, names ...string) (map[string]any, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	out := make(map[string]any, len(names))
	for _, name := range names {
		l, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("no data loader registered as %q", name)
		}
		data, err := l.LoadData(ctx, fsys)
		if err != nil {
			return nil, fmt.Errorf("error loading %q: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}
