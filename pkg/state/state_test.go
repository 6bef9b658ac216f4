package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connRecorder struct {
	transitions []ConnectionState
}

func (r *connRecorder) OnConnectionChange(_, current ConnectionState) {
	r.transitions = append(r.transitions, current)
}

type healthRecorder struct {
	beats []Health
}

func (r *healthRecorder) OnHealthChange(_, current Health) {
	r.beats = append(r.beats, current)
}

func TestConnectionMachineTransitions(t *testing.T) {
	m := NewConnectionMachine()
	current, _ := m.Current()
	assert.Equal(t, ConnectionDisconnected, current)

	rec := &connRecorder{}
	m.Subscribe(rec)
	m.Subscribe(rec) // identity dedup

	m.Set(ConnectionConnecting)
	m.Set(ConnectionConnected)
	m.Set(ConnectionConnected) // no-op, no notification
	m.Set(ConnectionError)

	assert.Equal(t, []ConnectionState{
		ConnectionConnecting, ConnectionConnected, ConnectionError,
	}, rec.transitions)
	assert.True(t, m.Is(ConnectionError))

	m.Unsubscribe(rec)
	m.Set(ConnectionDisconnected)
	assert.Len(t, rec.transitions, 3)
}

func TestConnectionMachineSinceUpdates(t *testing.T) {
	m := NewConnectionMachine()
	_, before := m.Current()

	time.Sleep(time.Millisecond)
	m.Set(ConnectionConnected)
	_, after := m.Current()
	assert.True(t, after.After(before))
}

func TestHealthMachineHeartbeat(t *testing.T) {
	m := NewHealthMachine()
	assert.Equal(t, HealthUnknown, m.Current().Status)

	rec := &healthRecorder{}
	m.Subscribe(rec)
	m.Subscribe(rec)

	m.Publish(HealthOK)
	first := m.Current()
	time.Sleep(time.Millisecond)

	// Same status again still refreshes the timestamp and notifies.
	m.Publish(HealthOK)
	second := m.Current()

	require.Len(t, rec.beats, 2)
	assert.Equal(t, HealthOK, second.Status)
	assert.True(t, second.At.After(first.At))

	m.Publish(HealthDegraded)
	assert.Equal(t, HealthDegraded, m.Current().Status)
	assert.Len(t, rec.beats, 3)
}

// Health is orthogonal to connection state: connected+degraded and
// disconnected+ok are both representable.
func TestHealthIndependentOfConnection(t *testing.T) {
	conn := NewConnectionMachine()
	health := NewHealthMachine()

	conn.Set(ConnectionConnected)
	health.Publish(HealthDegraded)
	assert.True(t, conn.Is(ConnectionConnected))
	assert.Equal(t, HealthDegraded, health.Current().Status)

	conn.Set(ConnectionDisconnected)
	health.Publish(HealthOK)
	assert.True(t, conn.Is(ConnectionDisconnected))
	assert.Equal(t, HealthOK, health.Current().Status)
}
