package tree

import (
	"errors"
	"fmt"
)

// Domain errors for the tree package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, tree.ErrValidation) {
//	    // value rejected before mutation, previous value intact
//	}
var (
	// ErrDuplicateName is returned when adding a child or attribute whose
	// name is already taken within the parent.
	ErrDuplicateName = errors.New("tree: duplicate name")

	// ErrDisabled is returned when reading from or writing to a disabled
	// attribute.
	ErrDisabled = errors.New("tree: attribute disabled")

	// ErrUnset is returned when an operation needs a value but the
	// attribute has never been set.
	ErrUnset = errors.New("tree: attribute unset")

	// ErrValidation is returned when a value fails type, unit, bounds or
	// early-hook validation. The attribute is left unchanged.
	ErrValidation = errors.New("tree: validation failed")

	// ErrNotFound is returned when a path does not resolve to an object
	// or attribute.
	ErrNotFound = errors.New("tree: not found")

	// ErrInvalidName is returned when an object or attribute name is
	// empty or contains a path separator.
	ErrInvalidName = errors.New("tree: invalid name")
)

// ValidationError describes a rejected value assignment. It matches
// ErrValidation under errors.Is and unwraps to the vetoing hook's error
// when an early hook caused the rejection.
type ValidationError struct {
	// Attribute is the absolute path of the attribute the set targeted.
	Attribute string

	// Reason is a human-readable description of the failure.
	Reason string

	// Cause is the underlying error, if any (early-hook veto, unit
	// conversion failure).
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tree: validation failed for %s: %s: %v", e.Attribute, e.Reason, e.Cause)
	}
	return fmt.Sprintf("tree: validation failed for %s: %s", e.Attribute, e.Reason)
}

// Is reports a match against ErrValidation so callers can branch on the
// sentinel without knowing the concrete type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
