package command

import (
	"github.com/google/uuid"

	"github.com/opencarlink/carlink-core/pkg/tree"
)

// ArgValue is the conventional argument name carrying the value of a
// plain attribute write. Commands with richer semantics (start-stop with
// a target temperature) define their own argument names.
const ArgValue = "value"

// Command is a typed, validated write intent targeting one attribute or
// object. It never mutates the target itself; the owning connector does
// that after confirming the change took effect server-side.
type Command struct {
	// ID uniquely identifies this execution for logging and tracing.
	ID uuid.UUID

	// Name is the command kind, e.g. "set", "start", "stop", "lock".
	Name string

	// Target is the attribute or object the write intent refers to.
	Target tree.Node

	// Args carries the command's arguments. For a plain attribute write
	// the single argument ArgValue holds the requested value.
	Args map[string]any
}

// New builds a command with a fresh ID. Args may be nil for
// argument-less commands.
func New(name string, target tree.Node, args map[string]any) *Command {
	if args == nil {
		args = make(map[string]any)
	}
	return &Command{
		ID:     uuid.New(),
		Name:   name,
		Target: target,
		Args:   args,
	}
}

// NewSet builds the common "write this value to this attribute" command.
func NewSet(target *tree.Attribute, value any) *Command {
	return New("set", target, map[string]any{ArgValue: value})
}

// TargetAttribute returns the target as an attribute, ok=false when the
// command targets an object.
func (c *Command) TargetAttribute() (*tree.Attribute, bool) {
	attr, ok := c.Target.(*tree.Attribute)
	return attr, ok
}

// Validate checks the command's arguments against the target's declared
// constraints. For attribute targets the ArgValue argument, when
// present, must satisfy the attribute's kind, enum membership and
// bounds; the attribute must also be enabled. Object-targeted commands
// carry connector-defined arguments and are validated by the handler.
func (c *Command) Validate() error {
	attr, ok := c.TargetAttribute()
	if !ok {
		return nil
	}
	if !attr.Enabled() {
		return &tree.ValidationError{
			Attribute: attr.Path(),
			Reason:    "target attribute is disabled",
			Cause:     tree.ErrDisabled,
		}
	}
	if v, present := c.Args[ArgValue]; present {
		if _, err := attr.Validate(v); err != nil {
			return err
		}
	}
	return nil
}
