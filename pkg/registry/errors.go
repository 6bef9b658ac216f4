package registry

import "errors"

// Domain errors for the registry package.
var (
	// ErrDuplicateInstance is returned when a (type, instance id) pair is
	// already registered.
	ErrDuplicateInstance = errors.New("registry: instance already registered")

	// ErrInstanceNotFound is returned when no instance matches the given
	// key.
	ErrInstanceNotFound = errors.New("registry: instance not found")

	// ErrUnknownType is returned by Factories when no factory is
	// registered for the requested type.
	ErrUnknownType = errors.New("registry: unknown type")

	// ErrClosed is returned for operations on a registry after Shutdown.
	ErrClosed = errors.New("registry: registry is shut down")
)
