package maildirsync

import (
	"sort"
	"sync"

	"github.com/infodancer/maildirsync/errors"
)

// StoreFactory opens a Driver from configuration. Registered by each
// driver package's init function (e.g. maildir.init registers "maildir").
type StoreFactory func(config StoreConfig) (Driver, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]StoreFactory)
)

// Register adds a store factory to the registry.
// It panics if called with an empty name or nil factory,
// or if the name is already registered.
func Register(name string, factory StoreFactory) {
	if name == "" {
		panic("maildirsync: Register called with empty name")
	}
	if factory == nil {
		panic("maildirsync: Register called with nil factory")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic("maildirsync: Register called twice for " + name)
	}
	registry[name] = factory
}

// Open creates a Driver using the registered factory for config.Type.
func Open(config StoreConfig) (Driver, error) {
	registryMu.RLock()
	factory, ok := registry[config.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.ErrStoreNotRegistered
	}
	return factory(config)
}

// RegisteredTypes returns a sorted list of registered store type names.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]string, 0, len(registry))
	for name := range registry {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
