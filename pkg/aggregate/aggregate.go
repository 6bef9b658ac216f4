// Package aggregate collects failures raised while operating over many
// connector/plugin instances concurrently (shutdown, broadcast health
// probes) and surfaces them as one composite error without losing any
// individual cause or its originating instance identity.
package aggregate

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Cause is one failure attributed to the instance it came from.
type Cause struct {
	// InstanceType is the connector/plugin type, e.g. "volkswagen".
	InstanceType string

	// InstanceID distinguishes concurrent instances of the same type.
	InstanceID string

	// Err is the original failure, unmodified.
	Err error
}

func (c Cause) String() string {
	return fmt.Sprintf("%s:%s: %v", c.InstanceType, c.InstanceID, c.Err)
}

// Error is a composite failure carrying the ordered list of individual
// causes. It matches any of its causes under errors.Is/errors.As via
// multi-error unwrapping.
type Error struct {
	Causes []Cause
}

func (e *Error) Error() string {
	if len(e.Causes) == 1 {
		return fmt.Sprintf("aggregate: 1 failure: %s", e.Causes[0])
	}
	parts := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		parts[i] = c.String()
	}
	return fmt.Sprintf("aggregate: %d failures: %s", len(e.Causes), strings.Join(parts, "; "))
}

// Unwrap exposes every cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.Causes))
	for i, c := range e.Causes {
		errs[i] = c.Err
	}
	return errs
}

// ByInstance returns the causes originating from one instance.
func (e *Error) ByInstance(instanceType, instanceID string) []Cause {
	var out []Cause
	for _, c := range e.Causes {
		if c.InstanceType == instanceType && c.InstanceID == instanceID {
			out = append(out, c)
		}
	}
	return out
}

// AsError extracts an *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var agg *Error
	if errors.As(err, &agg) {
		return agg, true
	}
	return nil, false
}

// Collector gathers causes from concurrent workers. The zero value is
// not usable; create one with NewCollector. All methods are safe for
// concurrent use.
type Collector struct {
	mu     sync.Mutex
	causes []Cause
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a failure for an instance. Nil errors are ignored so
// callers can pass results through unconditionally.
func (c *Collector) Add(instanceType, instanceID string, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.causes = append(c.causes, Cause{
		InstanceType: instanceType,
		InstanceID:   instanceID,
		Err:          err,
	})
}

// Len returns the number of recorded causes.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.causes)
}

// Err returns the composite error, or nil when nothing failed. The
// causes keep the order they were added in.
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.causes) == 0 {
		return nil
	}
	causes := make([]Cause, len(c.causes))
	copy(causes, c.causes)
	return &Error{Causes: causes}
}
