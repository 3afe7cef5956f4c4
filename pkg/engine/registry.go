package engine

import (
	"sort"
	"strings"
	"sync"

	"github.com/paveops/pave/pkg/config"
)

// Registry maps component type keys to their descriptors. Types are
// registered explicitly at startup; nothing is discovered by scanning or
// reflection. The registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Descriptor
}

// NewRegistry creates an empty component registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Descriptor)}
}

// Register adds a component type. Registering an already-registered type
// fails loudly rather than silently overwriting, so two packages cannot
// fight over a key.
func (r *Registry) Register(typeKey string, desc Descriptor) error {
	if typeKey == "" {
		return NewError(KindInternal, "component type key must not be empty")
	}
	if desc.Factory == nil {
		return Errorf(KindInternal, "component type %s registered without a factory", typeKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[typeKey]; exists {
		return Errorf(KindInternal, "component type %s is already registered", typeKey)
	}
	r.types[typeKey] = desc
	return nil
}

// MustRegister is Register for package init paths where a duplicate key is a
// programming error.
func (r *Registry) MustRegister(typeKey string, desc Descriptor) {
	if err := r.Register(typeKey, desc); err != nil {
		panic(err)
	}
}

// Has reports whether a type key is registered.
func (r *Registry) Has(typeKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[typeKey]
	return ok
}

// Descriptor returns the descriptor for a type key.
func (r *Registry) Descriptor(typeKey string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.types[typeKey]
	if !ok {
		return Descriptor{}, r.unknownType(typeKey)
	}
	return desc, nil
}

// Create instantiates a component of the given type. An unregistered type
// fails with an error listing every registered type.
func (r *Registry) Create(typeKey string, ctx *config.Context, cfg *config.ResolvedConfig) (ComponentHandle, error) {
	desc, err := r.Descriptor(typeKey)
	if err != nil {
		return nil, err
	}
	return desc.Factory(ctx, cfg)
}

// Types returns the registered type keys in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.types))
	for key := range r.types {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) unknownType(typeKey string) *ResolutionError {
	keys := make([]string, 0, len(r.types))
	for key := range r.types {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return Errorf(KindUnknownComponentType,
		"component type %q is not registered (registered types: %s)",
		typeKey, strings.Join(keys, ", ")).
		WithDetail("registeredTypes", keys)
}
