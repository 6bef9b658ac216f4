package command

import (
	"errors"
	"fmt"

	"github.com/opencarlink/carlink-core/pkg/tree"
)

// Domain errors for the command package.
var (
	// ErrUnsupportedCommand is returned when the target's connector does
	// not accept this command kind.
	ErrUnsupportedCommand = errors.New("command: unsupported command")

	// ErrConnectorUnavailable is returned when the owning connector
	// instance is not in the connected state, or no longer registered.
	ErrConnectorUnavailable = errors.New("command: connector unavailable")

	// ErrUnroutable is returned when the command's target sits in no
	// subtree with an owner reference, so there is no connector to
	// forward to.
	ErrUnroutable = errors.New("command: target has no owning connector")
)

// ExecutionError wraps a connector-specific execution failure uniformly
// without the core needing to understand it. The original error stays
// reachable through errors.Is/errors.As.
type ExecutionError struct {
	Command string
	Owner   tree.Owner
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command: %q failed on %s: %v", e.Command, e.Owner, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
