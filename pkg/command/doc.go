// Package command implements the typed write path of CarLink Core.
//
// Plugins never mutate attributes directly. They build a Command
// targeting an attribute or object and hand it to the Dispatcher, which
// resolves the target's owning connector instance through the registry,
// checks that the instance is connected, validates the arguments against
// the target's declared constraints, and forwards the command to the
// connector's handler. The connector performs the vendor round-trip and,
// only after the backend confirms the change, writes the new value into
// the attribute itself. This keeps the invariant that attribute
// mutation always originates from the owning connector.
//
// Expected failures are typed so callers can branch on them:
//
//	res, err := dispatcher.Execute(ctx, cmd)
//	switch {
//	case errors.Is(err, tree.ErrValidation):        // argument/bounds
//	case errors.Is(err, command.ErrConnectorUnavailable):
//	case errors.Is(err, command.ErrUnsupportedCommand):
//	default: // command.ExecutionError wraps vendor-specific failures
//	}
//
// At most one execution per target is in flight in the intended usage;
// the dispatcher imposes no lock of its own, so callers needing stricter
// ordering serialize at a higher level.
package command
