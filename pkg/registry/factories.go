package registry

import (
	"fmt"
	"sync"
)

// ConnectorFactory creates a connector instance from its raw
// configuration section.
type ConnectorFactory func(config map[string]any) (Connector, error)

// PluginFactory creates a plugin instance from its raw configuration
// section.
type PluginFactory func(config map[string]any) (Plugin, error)

// Factories maps type names to factory functions. It is an explicit
// value the composition root builds and hands to whoever instantiates
// instances from configuration; there is no global table.
type Factories struct {
	mu         sync.RWMutex
	connectors map[string]ConnectorFactory
	plugins    map[string]PluginFactory
}

// NewFactories creates an empty factory table.
func NewFactories() *Factories {
	return &Factories{
		connectors: make(map[string]ConnectorFactory),
		plugins:    make(map[string]PluginFactory),
	}
}

// RegisterConnector adds a connector factory for a type name.
func (f *Factories) RegisterConnector(typeName string, factory ConnectorFactory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.connectors[typeName]; exists {
		return fmt.Errorf("%w: connector factory %q already registered", ErrDuplicateInstance, typeName)
	}
	f.connectors[typeName] = factory
	return nil
}

// RegisterPlugin adds a plugin factory for a type name.
func (f *Factories) RegisterPlugin(typeName string, factory PluginFactory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.plugins[typeName]; exists {
		return fmt.Errorf("%w: plugin factory %q already registered", ErrDuplicateInstance, typeName)
	}
	f.plugins[typeName] = factory
	return nil
}

// NewConnector instantiates a connector of the given type.
func (f *Factories) NewConnector(typeName string, config map[string]any) (Connector, error) {
	f.mu.RLock()
	factory, ok := f.connectors[typeName]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: connector %q", ErrUnknownType, typeName)
	}
	conn, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("creating connector %q: %w", typeName, err)
	}
	return conn, nil
}

// NewPlugin instantiates a plugin of the given type.
func (f *Factories) NewPlugin(typeName string, config map[string]any) (Plugin, error) {
	f.mu.RLock()
	factory, ok := f.plugins[typeName]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: plugin %q", ErrUnknownType, typeName)
	}
	p, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("creating plugin %q: %w", typeName, err)
	}
	return p, nil
}

// ConnectorTypes returns the registered connector type names.
func (f *Factories) ConnectorTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.connectors))
	for name := range f.connectors {
		out = append(out, name)
	}
	return out
}

// PluginTypes returns the registered plugin type names.
func (f *Factories) PluginTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.plugins))
	for name := range f.plugins {
		out = append(out, name)
	}
	return out
}
