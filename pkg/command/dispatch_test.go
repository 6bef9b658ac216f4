package command

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencarlink/carlink-core/pkg/state"
	"github.com/opencarlink/carlink-core/pkg/tree"
)

// mockHandler records received commands and returns canned results.
type mockHandler struct {
	received []*Command
	result   Result
	err      error
}

func (m *mockHandler) HandleCommand(_ context.Context, cmd *Command) (Result, error) {
	m.received = append(m.received, cmd)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockResolver maps owners to handlers and connection machines.
type mockResolver struct {
	handlers map[tree.Owner]*mockHandler
	conns    map[tree.Owner]*state.ConnectionMachine
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		handlers: make(map[tree.Owner]*mockHandler),
		conns:    make(map[tree.Owner]*state.ConnectionMachine),
	}
}

func (m *mockResolver) ResolveHandler(owner tree.Owner) (Handler, *state.ConnectionMachine, error) {
	h, ok := m.handlers[owner]
	if !ok {
		return nil, nil, fmt.Errorf("instance not registered")
	}
	return h, m.conns[owner], nil
}

// fixture builds a connector-owned subtree with a bounded level
// attribute.
func fixture(t *testing.T) (*mockResolver, *mockHandler, *tree.Attribute) {
	t.Helper()

	owner := tree.Owner{Type: "vw", InstanceID: "default"}
	root := tree.MustObject("vw-root")
	root.SetOwner(owner)
	battery := tree.MustObject("battery")
	level := tree.MustAttribute("level", tree.KindInt, tree.WithBounds(0, 100))
	require.NoError(t, root.AddChild(battery))
	require.NoError(t, battery.AddAttribute(level))
	require.NoError(t, level.Set(50, tree.OriginConnector))

	resolver := newMockResolver()
	handler := &mockHandler{result: Result{"accepted": true}}
	conn := state.NewConnectionMachine()
	conn.Set(state.ConnectionConnected)
	resolver.handlers[owner] = handler
	resolver.conns[owner] = conn

	return resolver, handler, level
}

func TestExecuteForwardsToOwner(t *testing.T) {
	resolver, handler, level := fixture(t)
	d := NewDispatcher(resolver)

	cmd := NewSet(level, 80)
	res, err := d.Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, Result{"accepted": true}, res)
	require.Len(t, handler.received, 1)
	assert.Same(t, cmd, handler.received[0])

	// The dispatcher itself never mutated the attribute.
	v, _ := level.Int()
	assert.Equal(t, int64(50), v)
}

func TestExecuteValidationFailure(t *testing.T) {
	resolver, handler, level := fixture(t)
	d := NewDispatcher(resolver)

	_, err := d.Execute(context.Background(), NewSet(level, 150))
	require.ErrorIs(t, err, tree.ErrValidation)
	assert.Empty(t, handler.received)

	v, _ := level.Int()
	assert.Equal(t, int64(50), v)
}

func TestExecuteConnectorNotConnected(t *testing.T) {
	tests := []state.ConnectionState{
		state.ConnectionDisconnected,
		state.ConnectionConnecting,
		state.ConnectionError,
	}

	for _, connState := range tests {
		t.Run(string(connState), func(t *testing.T) {
			resolver, handler, level := fixture(t)
			owner, _ := tree.OwnerOf(level)
			resolver.conns[owner].Set(connState)
			d := NewDispatcher(resolver)

			_, err := d.Execute(context.Background(), NewSet(level, 80))
			require.ErrorIs(t, err, ErrConnectorUnavailable)
			assert.Empty(t, handler.received)

			v, _ := level.Int()
			assert.Equal(t, int64(50), v)
		})
	}
}

func TestExecuteUnregisteredInstance(t *testing.T) {
	_, _, level := fixture(t)
	d := NewDispatcher(newMockResolver()) // knows no instances

	_, err := d.Execute(context.Background(), NewSet(level, 80))
	require.ErrorIs(t, err, ErrConnectorUnavailable)
}

func TestExecuteUnroutableTarget(t *testing.T) {
	resolver, _, _ := fixture(t)
	d := NewDispatcher(resolver)

	orphan := tree.MustAttribute("lost", tree.KindInt)
	_, err := d.Execute(context.Background(), NewSet(orphan, 1))
	require.ErrorIs(t, err, ErrUnroutable)

	_, err = d.Execute(context.Background(), nil)
	require.ErrorIs(t, err, ErrUnroutable)
}

func TestExecuteUnsupportedCommandPassesThrough(t *testing.T) {
	resolver, handler, level := fixture(t)
	handler.err = fmt.Errorf("%w: no such kind", ErrUnsupportedCommand)
	d := NewDispatcher(resolver)

	_, err := d.Execute(context.Background(), New("fly", level, nil))
	require.ErrorIs(t, err, ErrUnsupportedCommand)

	var execErr *ExecutionError
	assert.False(t, errors.As(err, &execErr))
}

func TestExecuteWrapsConnectorFailure(t *testing.T) {
	resolver, handler, level := fixture(t)
	vendorErr := errors.New("backend returned 502")
	handler.err = vendorErr
	d := NewDispatcher(resolver)

	_, err := d.Execute(context.Background(), NewSet(level, 80))

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "set", execErr.Command)
	assert.Equal(t, "vw", execErr.Owner.Type)
	assert.ErrorIs(t, err, vendorErr)
}

func TestExecuteDisabledTarget(t *testing.T) {
	resolver, handler, level := fixture(t)
	level.SetEnabled(false)
	d := NewDispatcher(resolver)

	_, err := d.Execute(context.Background(), NewSet(level, 80))
	require.ErrorIs(t, err, tree.ErrValidation)
	require.ErrorIs(t, err, tree.ErrDisabled)
	assert.Empty(t, handler.received)
}

func TestObjectTargetSkipsArgValidation(t *testing.T) {
	resolver, handler, level := fixture(t)
	d := NewDispatcher(resolver)

	climate := level.Parent() // object target within the owned subtree
	cmd := New("start", climate, map[string]any{"target_temperature": 21.5})
	_, err := d.Execute(context.Background(), cmd)
	require.NoError(t, err)
	require.Len(t, handler.received, 1)
	assert.Equal(t, "start", handler.received[0].Name)
}
