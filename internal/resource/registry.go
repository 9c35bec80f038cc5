package resource

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
)

// Key identifies a registered provider implementation.
type Key struct {
	Kind    string
	Version string
}

// String renders the key form used in logs and registry errors, e.g.
// "SQLDB:v1.0.0".
func (k Key) String() string {
	return fmt.Sprintf("%s:v%s", strings.ToUpper(k.Kind), k.Version)
}

// DatasetFactory builds a dataset bound to an already constructed linked
// service.
type DatasetFactory func(service LinkedService, settings Settings) (Dataset, error)

// LinkedServiceFactory builds a linked service from settings. No I/O
// happens until Connect.
type LinkedServiceFactory func(settings Settings) (LinkedService, error)

// Registry indexes provider factories by (kind, version).
type Registry[F any] struct {
	name     string
	missKind Kind

	factories map[Key]F
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry. name labels error and panic
// messages; missKind is the failure kind raised for unknown lookups.
func NewRegistry[F any](name string, missKind Kind) *Registry[F] {
	return &Registry[F]{
		name:      name,
		missKind:  missKind,
		factories: make(map[Key]F),
	}
}

// Register adds a factory for the given kind and version.
// Panics if the pair is already registered.
func (r *Registry[F]) Register(kind, version string, factory F) {
	key := Key{Kind: kind, Version: version}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		panic(fmt.Sprintf("%s factory already registered: %s", r.name, key))
	}
	r.factories[key] = factory
}

// Get returns the factory for the exact kind and version.
func (r *Registry[F]) Get(kind, version string) (F, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[Key{Kind: kind, Version: version}]
	return factory, ok
}

// Resolve returns the factory for the kind, picking the highest registered
// version when version is empty.
func (r *Registry[F]) Resolve(kind, version string) (F, error) {
	var zero F
	if version == "" {
		version = r.latest(kind)
	}
	factory, ok := r.Get(kind, version)
	if !ok {
		return zero, New(r.missKind,
			fmt.Sprintf("no %s registered for kind %q version %q", r.name, kind, version)).
			WithDetail("kind", kind).
			WithDetail("version", version).
			WithDetail("known", r.describe(kind))
	}
	return factory, nil
}

// latest returns the highest registered version of kind by semver order,
// or "" when the kind is unknown.
func (r *Registry[F]) latest(kind string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	for key := range r.factories {
		if key.Kind != kind {
			continue
		}
		if best == "" || semver.Compare("v"+key.Version, "v"+best) > 0 {
			best = key.Version
		}
	}
	return best
}

func (r *Registry[F]) describe(kind string) []string {
	var known []string
	for _, key := range r.Keys() {
		if key.Kind == kind || kind == "" {
			known = append(known, key.String())
		}
	}
	if len(known) == 0 {
		for _, key := range r.Keys() {
			known = append(known, key.String())
		}
	}
	return known
}

// Keys returns all registered (kind, version) pairs, sorted.
func (r *Registry[F]) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.factories))
	for key := range r.factories {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return semver.Compare("v"+keys[i].Version, "v"+keys[j].Version) < 0
	})
	return keys
}

// Kinds returns the distinct registered kinds, sorted.
func (r *Registry[F]) Kinds() []string {
	seen := make(map[string]bool)
	var kinds []string
	for _, key := range r.Keys() {
		if !seen[key.Kind] {
			seen[key.Kind] = true
			kinds = append(kinds, key.Kind)
		}
	}
	return kinds
}

// --- Default Global Registries ---

var (
	datasetRegistry = NewRegistry[DatasetFactory]("dataset", KindDatasetType)
	serviceRegistry = NewRegistry[LinkedServiceFactory]("linked service", KindServiceType)
)

// Datasets returns the global dataset registry.
func Datasets() *Registry[DatasetFactory] { return datasetRegistry }

// LinkedServices returns the global linked-service registry.
func LinkedServices() *Registry[LinkedServiceFactory] { return serviceRegistry }

// RegisterDataset adds a dataset factory to the global registry.
func RegisterDataset(kind, version string, factory DatasetFactory) {
	datasetRegistry.Register(kind, version, factory)
}

// RegisterLinkedService adds a linked-service factory to the global
// registry.
func RegisterLinkedService(kind, version string, factory LinkedServiceFactory) {
	serviceRegistry.Register(kind, version, factory)
}

// NewLinkedService instantiates a registered linked service. An empty
// version picks the highest registered one.
func NewLinkedService(kind, version string, settings Settings) (LinkedService, error) {
	factory, err := serviceRegistry.Resolve(kind, version)
	if err != nil {
		return nil, err
	}
	return factory(settings)
}

// NewDataset instantiates a registered dataset bound to service. An empty
// version picks the highest registered one.
func NewDataset(kind, version string, service LinkedService, settings Settings) (Dataset, error) {
	factory, err := datasetRegistry.Resolve(kind, version)
	if err != nil {
		return nil, err
	}
	return factory(service, settings)
}
