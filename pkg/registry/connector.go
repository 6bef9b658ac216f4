package registry

import (
	"context"

	"github.com/opencarlink/carlink-core/pkg/command"
	"github.com/opencarlink/carlink-core/pkg/state"
	"github.com/opencarlink/carlink-core/pkg/tree"
)

// Key identifies one registered instance. InstanceID disambiguates
// multiple instances of the same type; registration fills in
// DefaultInstanceID when it is empty.
type Key struct {
	Type       string
	InstanceID string
}

// DefaultInstanceID is used when a key is registered without an
// explicit instance id.
const DefaultInstanceID = "default"

func (k Key) String() string {
	return k.Type + ":" + k.InstanceID
}

// Owner returns the tree owner reference corresponding to this key.
func (k Key) Owner() tree.Owner {
	return tree.Owner{Type: k.Type, InstanceID: k.InstanceID}
}

func (k Key) normalized() Key {
	if k.InstanceID == "" {
		k.InstanceID = DefaultInstanceID
	}
	return k
}

// Instance is the handle a connector or plugin receives at startup. It
// scopes the instance to its own subtree and state machines; instances
// never reach outside it.
type Instance struct {
	key        Key
	root       *tree.Object
	connection *state.ConnectionMachine
	health     *state.HealthMachine
}

// Key returns the instance's registration key.
func (i *Instance) Key() Key { return i.key }

// Root returns the instance's isolated subtree root. The instance is
// the only writer of attributes below it.
func (i *Instance) Root() *tree.Object { return i.root }

// Connection returns the instance's connection state machine. Only the
// instance itself transitions it.
func (i *Instance) Connection() *state.ConnectionMachine { return i.connection }

// Health returns the instance's health machine.
func (i *Instance) Health() *state.HealthMachine { return i.health }

// Connector adapts one vendor backend to the shared tree. A connector
// instance owns its subtree: it is the only code that writes attribute
// values there, and commands targeting the subtree are routed to it.
type Connector interface {
	// Type is the connector's registration type, e.g. "volkswagen".
	Type() string

	// Version identifies the connector build for logging.
	Version() string

	// Startup receives the instance handle and brings the connector to
	// a running state. Blocking work (initial fetch, session setup)
	// honours the context.
	Startup(ctx context.Context, inst *Instance) error

	// FetchAll refreshes the instance's whole subtree from the backend.
	FetchAll(ctx context.Context) error

	// HandleCommand executes a command targeting this instance's
	// subtree. Unsupported kinds return command.ErrUnsupportedCommand.
	HandleCommand(ctx context.Context, cmd *command.Command) (command.Result, error)

	// Healthy reports the instance's current liveness.
	Healthy(ctx context.Context) state.HealthStatus

	// Shutdown releases the connector's resources. Called exactly once.
	Shutdown(ctx context.Context) error
}

// Plugin consumes the tree without owning vendor data: it observes
// attribute changes and issues commands, never writing attributes
// directly.
type Plugin interface {
	Type() string
	Version() string
	Startup(ctx context.Context, inst *Instance) error
	Healthy(ctx context.Context) state.HealthStatus
	Shutdown(ctx context.Context) error
}
