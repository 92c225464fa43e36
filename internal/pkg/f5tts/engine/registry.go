package engine

import (
	"fmt"
	"sync"
)

type EngineFactory func(cfg EngineConfig) (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]EngineFactory)
)

func Register(backbone string, factory EngineFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("engine: Register factory is nil")
	}
	if _, dup := registry[backbone]; dup {
		panic("engine: Register called twice for " + backbone)
	}
	registry[backbone] = factory
}

func New(backbone string, cfg EngineConfig) (Engine, error) {
	registryMu.RLock()
	factory, ok := registry[backbone]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine: unknown model backbone %q (registered: %v)", backbone, ListBackbones())
	}
	cfg.Backbone = backbone
	return factory(cfg)
}

func ListBackbones() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

func IsRegistered(backbone string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[backbone]
	return ok
}
