package tree

import (
	"reflect"
	"time"
)

// Origin identifies who initiated an attribute mutation.
type Origin string

// Origin constants.
const (
	// OriginConnector marks updates written by the subtree's owning
	// connector as new data arrives from the vendor backend.
	OriginConnector Origin = "connector"

	// OriginCommand marks updates written by a connector after it
	// confirmed a command took effect server-side.
	OriginCommand Origin = "command"

	// OriginInternal marks updates written by the core itself
	// (lifecycle bookkeeping, tests).
	OriginInternal Origin = "internal"
)

// EventFlags describes what happened to an attribute in a single
// notification. Multiple flags can be set on one event.
type EventFlags uint8

// Event flag constants.
const (
	// EventUpdated is set on every successful write, whether or not the
	// value differs from the previous one.
	EventUpdated EventFlags = 1 << iota

	// EventValueChanged is set when the committed value differs from the
	// previous value.
	EventValueChanged

	// EventEnabled is set when the attribute transitions to enabled.
	EventEnabled

	// EventDisabled is set when the attribute transitions to disabled.
	EventDisabled

	// EventRemoved is set when the attribute's subtree is torn down.
	// After this event the attribute rejects all reads and writes.
	EventRemoved
)

// Has reports whether all given flags are set.
func (f EventFlags) Has(flags EventFlags) bool {
	return f&flags == flags
}

// ChangeEvent is delivered to hooks when an attribute changes.
// Previous is nil when the attribute was previously unset.
type ChangeEvent struct {
	Attribute *Attribute
	Previous  any
	Value     any
	Origin    Origin
	Flags     EventFlags
	When      time.Time
}

// Hook receives attribute change notifications.
//
// Early hooks run in registration order strictly before the value is
// committed; returning a non-nil error vetoes the mutation and the caller
// of Set observes a ValidationError wrapping it. Late hooks run in
// registration order strictly after commit; their errors are reported
// through the tree's failure handler and never reach the writer.
//
// Hook values must be comparable (pointer receivers are the common case):
// registration deduplicates by identity, so registering the same hook
// twice results in exactly one invocation per change.
type Hook interface {
	OnChange(ev ChangeEvent) error
}

// LateFailureHandler is the side channel for late-hook errors. One failing
// observer must not prevent others from running or corrupt the commit, so
// late errors are routed here instead of being returned to the writer.
type LateFailureHandler func(attr *Attribute, hook Hook, err error)

// hookList is an ordered set of hooks keyed by hook identity.
type hookList struct {
	hooks []Hook
}

// add appends the hook unless an identical hook is already registered.
// Returns true if the hook was added.
func (l *hookList) add(h Hook) bool {
	if h == nil {
		return false
	}
	for _, existing := range l.hooks {
		if hooksEqual(existing, h) {
			return false
		}
	}
	l.hooks = append(l.hooks, h)
	return true
}

// remove deletes the hook if registered. Removing an unknown hook is a
// no-op, making unregistration idempotent.
func (l *hookList) remove(h Hook) {
	for i, existing := range l.hooks {
		if hooksEqual(existing, h) {
			l.hooks = append(l.hooks[:i], l.hooks[i+1:]...)
			return
		}
	}
}

// snapshot returns a copy of the registration-ordered hooks so they can be
// invoked outside the list's lock.
func (l *hookList) snapshot() []Hook {
	if len(l.hooks) == 0 {
		return nil
	}
	cpy := make([]Hook, len(l.hooks))
	copy(cpy, l.hooks)
	return cpy
}

// hooksEqual compares hook identity. Hooks with non-comparable dynamic
// types (closures wrapped in structs with func fields) cannot be
// deduplicated and always compare unequal.
func hooksEqual(a, b Hook) bool {
	ta := reflect.TypeOf(a)
	tb := reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}
