package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crucial707/remote-inspect/internal/config"
)

// FactoryFunc builds a backend from configuration.
type FactoryFunc func(cfg config.StorageConfig) (Storage, error)

var factories = make(map[string]FactoryFunc)

// Register makes a backend available to New under name.
func Register(name string, factory FactoryFunc) {
	factories[name] = factory
}

// New builds the backend named by cfg.Backend.
func New(cfg config.StorageConfig) (Storage, error) {
	factory, ok := factories[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unsupported storage backend: %q (registered: %s)", cfg.Backend, strings.Join(Registered(), ", "))
	}
	return factory(cfg)
}

// Registered lists the backend names known to New.
func Registered() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
