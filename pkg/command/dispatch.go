package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencarlink/carlink-core/pkg/state"
	"github.com/opencarlink/carlink-core/pkg/tree"
)

// Result is the connector's answer to a successfully executed command.
type Result map[string]any

// Handler executes commands on behalf of one connector instance.
// Implementations return ErrUnsupportedCommand (possibly wrapped) for
// command kinds they do not accept; any other failure is wrapped in
// ExecutionError by the dispatcher.
//
// Execution may block the calling worker on a vendor round-trip; the
// context carries cancellation.
type Handler interface {
	HandleCommand(ctx context.Context, cmd *Command) (Result, error)
}

// Resolver looks up the live handler and connection state for a subtree
// owner. The registry implements this; the indirection keeps the
// command package free of registry bookkeeping.
type Resolver interface {
	ResolveHandler(owner tree.Owner) (Handler, *state.ConnectionMachine, error)
}

// Logger is the minimal logging interface used by the dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Dispatcher routes commands to the connector instance owning the
// target's subtree.
type Dispatcher struct {
	resolver Resolver
	logger   Logger
}

// NewDispatcher creates a dispatcher resolving owners through the given
// resolver.
func NewDispatcher(resolver Resolver) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Execute resolves, validates and forwards a command.
//
// The order of checks is deliberate: routing first (ErrUnroutable),
// availability second (ErrConnectorUnavailable), argument validation
// third (tree.ValidationError), then the forwarded call. A rejected
// command performs no mutation anywhere.
func (d *Dispatcher) Execute(ctx context.Context, cmd *Command) (Result, error) {
	if cmd == nil || cmd.Target == nil {
		return nil, fmt.Errorf("%w: nil command or target", ErrUnroutable)
	}

	owner, ok := tree.OwnerOf(cmd.Target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnroutable, cmd.Target.Path())
	}

	handler, conn, err := d.resolver.ResolveHandler(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnectorUnavailable, owner, err)
	}
	if !conn.Is(state.ConnectionConnected) {
		current, _ := conn.Current()
		return nil, fmt.Errorf("%w: %s is %s", ErrConnectorUnavailable, owner, current)
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	d.logger.Debug("dispatching command",
		"id", cmd.ID, "name", cmd.Name, "target", cmd.Target.Path(), "owner", owner.String())

	res, err := handler.HandleCommand(ctx, cmd)
	if err != nil {
		if errors.Is(err, ErrUnsupportedCommand) {
			return nil, err
		}
		d.logger.Warn("command execution failed",
			"id", cmd.ID, "name", cmd.Name, "owner", owner.String(), "error", err)
		return nil, &ExecutionError{Command: cmd.Name, Owner: owner, Err: err}
	}
	return res, nil
}
