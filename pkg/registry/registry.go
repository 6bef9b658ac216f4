package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/opencarlink/carlink-core/pkg/aggregate"
	"github.com/opencarlink/carlink-core/pkg/command"
	"github.com/opencarlink/carlink-core/pkg/state"
	"github.com/opencarlink/carlink-core/pkg/tree"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type connectorEntry struct {
	inst *Instance
	conn Connector
}

type pluginEntry struct {
	inst   *Instance
	plugin Plugin
}

// Registry owns the shared tree and the set of live connector and
// plugin instances. All public methods are thread-safe.
type Registry struct {
	root           *tree.Object
	connectorsRoot *tree.Object
	pluginsRoot    *tree.Object

	mu         sync.RWMutex
	connectors map[Key]*connectorEntry
	plugins    map[Key]*pluginEntry
	closed     bool

	logger Logger
}

// New creates a registry with an empty tree holding the /connectors and
// /plugins anchors.
func New() *Registry {
	r := &Registry{
		root:           tree.NewRoot(),
		connectorsRoot: tree.MustObject("connectors"),
		pluginsRoot:    tree.MustObject("plugins"),
		connectors:     make(map[Key]*connectorEntry),
		plugins:        make(map[Key]*pluginEntry),
		logger:         noopLogger{},
	}
	// The anchors are fixed; attaching them cannot fail.
	if err := r.root.AddChild(r.connectorsRoot); err != nil {
		panic(err)
	}
	if err := r.root.AddChild(r.pluginsRoot); err != nil {
		panic(err)
	}
	r.root.SetLateFailureHandler(func(attr *tree.Attribute, _ tree.Hook, err error) {
		r.logger.Warn("change hook failed", "attribute", attr.Path(), "error", err)
	})
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Root returns the shared tree root. Readers may resolve and dump it;
// attribute writes remain the business of owning connectors.
func (r *Registry) Root() *tree.Object {
	return r.root
}

// RegisterConnector creates the instance's isolated subtree under
// /connectors, starts the connector, and records it for command
// routing. An empty instance id maps to DefaultInstanceID. Returns
// ErrDuplicateInstance when the key is taken.
func (r *Registry) RegisterConnector(ctx context.Context, key Key, conn Connector) (*Instance, error) {
	key = key.normalized()

	inst, err := r.attach(key, r.connectorsRoot)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.connectors[key] = &connectorEntry{inst: inst, conn: conn}
	r.mu.Unlock()

	if err := conn.Startup(ctx, inst); err != nil {
		r.detachConnector(key)
		return nil, fmt.Errorf("starting connector %s: %w", key, err)
	}

	r.logger.Info("connector registered",
		"type", key.Type, "instance", key.InstanceID, "version", conn.Version())
	return inst, nil
}

// RegisterPlugin is RegisterConnector for plugins, anchored under
// /plugins.
func (r *Registry) RegisterPlugin(ctx context.Context, key Key, plugin Plugin) (*Instance, error) {
	key = key.normalized()

	inst, err := r.attach(key, r.pluginsRoot)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.plugins[key] = &pluginEntry{inst: inst, plugin: plugin}
	r.mu.Unlock()

	if err := plugin.Startup(ctx, inst); err != nil {
		r.detachPlugin(key)
		return nil, fmt.Errorf("starting plugin %s: %w", key, err)
	}

	r.logger.Info("plugin registered",
		"type", key.Type, "instance", key.InstanceID, "version", plugin.Version())
	return inst, nil
}

// attach builds the instance handle and its subtree root. The subtree
// root's name is the key's "<type>:<id>" form, so two instances of the
// same type land in sibling subtrees.
func (r *Registry) attach(key Key, anchor *tree.Object) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if _, exists := r.connectors[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateInstance, key)
	}
	if _, exists := r.plugins[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateInstance, key)
	}

	root, err := tree.NewObject(key.String())
	if err != nil {
		return nil, fmt.Errorf("subtree root for %s: %w", key, err)
	}
	root.SetOwner(key.Owner())
	if err := anchor.AddChild(root); err != nil {
		return nil, fmt.Errorf("attaching subtree for %s: %w", key, err)
	}

	return &Instance{
		key:        key,
		root:       root,
		connection: state.NewConnectionMachine(),
		health:     state.NewHealthMachine(),
	}, nil
}

func (r *Registry) detachConnector(key Key) {
	r.mu.Lock()
	delete(r.connectors, key)
	r.mu.Unlock()
	_ = r.connectorsRoot.RemoveChild(key.String())
}

func (r *Registry) detachPlugin(key Key) {
	r.mu.Lock()
	delete(r.plugins, key)
	r.mu.Unlock()
	_ = r.pluginsRoot.RemoveChild(key.String())
}

// Connector returns the live connector instance for a key.
func (r *Registry) Connector(key Key) (*Instance, Connector, error) {
	key = key.normalized()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.connectors[key]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, key)
	}
	return entry.inst, entry.conn, nil
}

// Plugin returns the live plugin instance for a key.
func (r *Registry) Plugin(key Key) (*Instance, Plugin, error) {
	key = key.normalized()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.plugins[key]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, key)
	}
	return entry.inst, entry.plugin, nil
}

// Keys returns the registered connector and plugin keys, sorted.
func (r *Registry) Keys() (connectors, plugins []Key) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key := range r.connectors {
		connectors = append(connectors, key)
	}
	for key := range r.plugins {
		plugins = append(plugins, key)
	}
	sortKeys(connectors)
	sortKeys(plugins)
	return connectors, plugins
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].InstanceID < keys[j].InstanceID
	})
}

// UnregisterConnector shuts the connector down and tears down its
// subtree. Every attribute below the subtree root fires a final removal
// notification. The subtree is removed even when shutdown fails.
func (r *Registry) UnregisterConnector(ctx context.Context, key Key) error {
	key = key.normalized()

	r.mu.Lock()
	entry, ok := r.connectors[key]
	if ok {
		delete(r.connectors, key)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, key)
	}

	err := entry.conn.Shutdown(ctx)
	_ = r.connectorsRoot.RemoveChild(key.String())
	entry.inst.connection.Set(state.ConnectionDisconnected)

	r.logger.Info("connector unregistered", "type", key.Type, "instance", key.InstanceID)
	if err != nil {
		return fmt.Errorf("shutting down connector %s: %w", key, err)
	}
	return nil
}

// UnregisterPlugin is UnregisterConnector for plugins.
func (r *Registry) UnregisterPlugin(ctx context.Context, key Key) error {
	key = key.normalized()

	r.mu.Lock()
	entry, ok := r.plugins[key]
	if ok {
		delete(r.plugins, key)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, key)
	}

	err := entry.plugin.Shutdown(ctx)
	_ = r.pluginsRoot.RemoveChild(key.String())

	r.logger.Info("plugin unregistered", "type", key.Type, "instance", key.InstanceID)
	if err != nil {
		return fmt.Errorf("shutting down plugin %s: %w", key, err)
	}
	return nil
}

// FetchAll asks every connector instance to refresh its subtree. A
// failing instance does not stop the others; all failures come back in
// one aggregate error with each instance's identity attached.
func (r *Registry) FetchAll(ctx context.Context) error {
	connectors, _ := r.Keys()

	collector := aggregate.NewCollector()
	for _, key := range connectors {
		_, conn, err := r.Connector(key)
		if err != nil {
			continue // unregistered concurrently
		}
		if err := conn.FetchAll(ctx); err != nil {
			r.logger.Warn("fetch failed", "type", key.Type, "instance", key.InstanceID, "error", err)
			collector.Add(key.Type, key.InstanceID, err)
		}
	}
	return collector.Err()
}

// PublishHealth polls every instance's Healthy and records the result
// on its health machine, returning the snapshot by key.
func (r *Registry) PublishHealth(ctx context.Context) map[Key]state.Health {
	connectors, plugins := r.Keys()

	snapshot := make(map[Key]state.Health, len(connectors)+len(plugins))
	for _, key := range connectors {
		inst, conn, err := r.Connector(key)
		if err != nil {
			continue
		}
		inst.health.Publish(conn.Healthy(ctx))
		snapshot[key] = inst.health.Current()
	}
	for _, key := range plugins {
		inst, plugin, err := r.Plugin(key)
		if err != nil {
			continue
		}
		inst.health.Publish(plugin.Healthy(ctx))
		snapshot[key] = inst.health.Current()
	}
	return snapshot
}

// Shutdown stops every instance exactly once, plugins before
// connectors, and tears down their subtrees. Individual failures never
// halt the sweep; they are all reported in one aggregate error with
// per-instance causes. The registry rejects further registrations.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.closed = true
	plugins := make(map[Key]*pluginEntry, len(r.plugins))
	for key, entry := range r.plugins {
		plugins[key] = entry
	}
	connectors := make(map[Key]*connectorEntry, len(r.connectors))
	for key, entry := range r.connectors {
		connectors[key] = entry
	}
	r.plugins = make(map[Key]*pluginEntry)
	r.connectors = make(map[Key]*connectorEntry)
	r.mu.Unlock()

	collector := aggregate.NewCollector()

	pluginKeys := make([]Key, 0, len(plugins))
	for key := range plugins {
		pluginKeys = append(pluginKeys, key)
	}
	sortKeys(pluginKeys)
	for _, key := range pluginKeys {
		if err := plugins[key].plugin.Shutdown(ctx); err != nil {
			r.logger.Error("plugin shutdown failed", "type", key.Type, "instance", key.InstanceID, "error", err)
			collector.Add(key.Type, key.InstanceID, err)
		}
		_ = r.pluginsRoot.RemoveChild(key.String())
	}

	connectorKeys := make([]Key, 0, len(connectors))
	for key := range connectors {
		connectorKeys = append(connectorKeys, key)
	}
	sortKeys(connectorKeys)
	for _, key := range connectorKeys {
		entry := connectors[key]
		if err := entry.conn.Shutdown(ctx); err != nil {
			r.logger.Error("connector shutdown failed", "type", key.Type, "instance", key.InstanceID, "error", err)
			collector.Add(key.Type, key.InstanceID, err)
		}
		_ = r.connectorsRoot.RemoveChild(key.String())
		entry.inst.connection.Set(state.ConnectionDisconnected)
	}

	r.logger.Info("registry shut down",
		"connectors", len(connectorKeys), "plugins", len(pluginKeys), "failures", collector.Len())
	return collector.Err()
}

// ResolveHandler implements command.Resolver: it maps a subtree owner
// back to the live connector instance. Plugins never handle commands.
func (r *Registry) ResolveHandler(owner tree.Owner) (command.Handler, *state.ConnectionMachine, error) {
	key := Key{Type: owner.Type, InstanceID: owner.InstanceID}.normalized()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.connectors[key]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, key)
	}
	return entry.conn, entry.inst.connection, nil
}
