package state

import (
	"reflect"
	"sync"
	"time"
)

// ConnectionState represents a connector instance's link to its backend.
type ConnectionState string

// ConnectionState constants.
const (
	ConnectionDisconnected  ConnectionState = "disconnected"
	ConnectionConnecting    ConnectionState = "connecting"
	ConnectionConnected     ConnectionState = "connected"
	ConnectionDisconnecting ConnectionState = "disconnecting"
	ConnectionError         ConnectionState = "error"
	ConnectionUnknown       ConnectionState = "unknown"
)

// AllConnectionStates returns all valid connection states.
func AllConnectionStates() []ConnectionState {
	return []ConnectionState{
		ConnectionDisconnected, ConnectionConnecting, ConnectionConnected,
		ConnectionDisconnecting, ConnectionError, ConnectionUnknown,
	}
}

// HealthStatus is the liveness signal of a connector or plugin instance,
// independent of its connection state.
type HealthStatus string

// HealthStatus constants.
const (
	HealthOK       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
	HealthError    HealthStatus = "error"
	HealthUnknown  HealthStatus = "unknown"
)

// AllHealthStatuses returns all valid health statuses.
func AllHealthStatuses() []HealthStatus {
	return []HealthStatus{HealthOK, HealthDegraded, HealthError, HealthUnknown}
}

// Health is one heartbeat: a status and the time it was published.
type Health struct {
	Status HealthStatus
	At     time.Time
}

// ConnectionSubscriber is notified after a connection state transition.
// Subscriber values must be comparable; registration deduplicates by
// identity.
type ConnectionSubscriber interface {
	OnConnectionChange(previous, current ConnectionState)
}

// HealthSubscriber is notified after every heartbeat.
type HealthSubscriber interface {
	OnHealthChange(previous, current Health)
}

// ConnectionMachine holds the latest connection state of one instance.
// Transition legality is up to the owning connector.
type ConnectionMachine struct {
	mu      sync.Mutex
	current ConnectionState
	since   time.Time
	subs    []ConnectionSubscriber
}

// NewConnectionMachine creates a machine starting disconnected.
func NewConnectionMachine() *ConnectionMachine {
	return &ConnectionMachine{
		current: ConnectionDisconnected,
		since:   time.Now(),
	}
}

// Current returns the latest state and the time it was entered.
func (m *ConnectionMachine) Current() (ConnectionState, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.since
}

// Is reports whether the machine is currently in the given state.
func (m *ConnectionMachine) Is(s ConnectionState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current == s
}

// Set records a transition and notifies subscribers. Setting the current
// state again is a no-op.
func (m *ConnectionMachine) Set(s ConnectionState) {
	m.mu.Lock()
	if m.current == s {
		m.mu.Unlock()
		return
	}
	previous := m.current
	m.current = s
	m.since = time.Now()
	subs := make([]ConnectionSubscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.OnConnectionChange(previous, s)
	}
}

// Subscribe registers a transition subscriber, deduplicated by identity.
func (m *ConnectionMachine) Subscribe(sub ConnectionSubscriber) {
	if sub == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subs {
		if subscribersEqual(existing, sub) {
			return
		}
	}
	m.subs = append(m.subs, sub)
}

// Unsubscribe removes a subscriber. Unknown subscribers are a no-op.
func (m *ConnectionMachine) Unsubscribe(sub ConnectionSubscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.subs {
		if subscribersEqual(existing, sub) {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return
		}
	}
}

// HealthMachine holds the latest heartbeat of one instance.
type HealthMachine struct {
	mu      sync.Mutex
	current Health
	subs    []HealthSubscriber
}

// NewHealthMachine creates a machine starting unknown.
func NewHealthMachine() *HealthMachine {
	return &HealthMachine{
		current: Health{Status: HealthUnknown, At: time.Now()},
	}
}

// Current returns the latest heartbeat.
func (m *HealthMachine) Current() Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Publish records a heartbeat and notifies subscribers. Unlike
// connection transitions, repeated publication of the same status still
// refreshes the timestamp and notifies, because the heartbeat itself is
// the signal.
func (m *HealthMachine) Publish(status HealthStatus) {
	m.mu.Lock()
	previous := m.current
	m.current = Health{Status: status, At: time.Now()}
	current := m.current
	subs := make([]HealthSubscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.OnHealthChange(previous, current)
	}
}

// Subscribe registers a heartbeat subscriber, deduplicated by identity.
func (m *HealthMachine) Subscribe(sub HealthSubscriber) {
	if sub == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subs {
		if subscribersEqual(existing, sub) {
			return
		}
	}
	m.subs = append(m.subs, sub)
}

// Unsubscribe removes a subscriber. Unknown subscribers are a no-op.
func (m *HealthMachine) Unsubscribe(sub HealthSubscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.subs {
		if subscribersEqual(existing, sub) {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return
		}
	}
}

// subscribersEqual compares subscriber identity, guarding against
// non-comparable dynamic types.
func subscribersEqual(a, b any) bool {
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
