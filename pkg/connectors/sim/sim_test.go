package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencarlink/carlink-core/pkg/command"
	"github.com/opencarlink/carlink-core/pkg/registry"
	"github.com/opencarlink/carlink-core/pkg/state"
	"github.com/opencarlink/carlink-core/pkg/vehicle"
)

func setup(t *testing.T) (*registry.Registry, *Connector, *vehicle.Vehicle) {
	t.Helper()
	ctx := context.Background()

	r := registry.New()
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })

	conn, err := New(nil)
	require.NoError(t, err)
	inst, err := r.RegisterConnector(ctx, registry.Key{Type: Type}, conn)
	require.NoError(t, err)
	require.True(t, inst.Connection().Is(state.ConnectionConnected))

	car, ok := conn.Garage().Vehicle("SIM0000000TEST001")
	require.True(t, ok)
	return r, conn, car
}

func TestStartupPopulatesGarage(t *testing.T) {
	r, _, car := setup(t)

	level, err := r.Root().ResolveAttribute("/connectors/sim:default/garage/SIM0000000TEST001/drives/primary/level")
	require.NoError(t, err)
	got, ok := level.Float()
	require.True(t, ok)
	assert.Equal(t, 80.0, got)

	carState, ok := car.State.Text()
	require.True(t, ok)
	assert.Equal(t, vehicle.StateParked, carState)
}

func TestFetchAllDrainsBattery(t *testing.T) {
	_, conn, car := setup(t)

	drive, ok := car.Drives.Drive("primary")
	require.True(t, ok)
	before, _ := drive.Level.Float()

	require.NoError(t, conn.FetchAll(context.Background()))
	after, ok := drive.Level.Float()
	require.True(t, ok)
	assert.Less(t, after, before)
}

func TestClimatizationRoundTrip(t *testing.T) {
	r, _, car := setup(t)
	ctx := context.Background()
	d := command.NewDispatcher(r)

	res, err := d.Execute(ctx, car.Climatization.StartCommand(21.5))
	require.NoError(t, err)
	assert.Equal(t, vehicle.ClimatizationHeating, res["state"])

	climState, ok := car.Climatization.State.Text()
	require.True(t, ok)
	assert.Equal(t, vehicle.ClimatizationHeating, climState)

	target, ok := car.Climatization.Settings.TargetTemperature.Float()
	require.True(t, ok)
	assert.Equal(t, 21.5, target)

	_, err = d.Execute(ctx, car.Climatization.StopCommand())
	require.NoError(t, err)
	climState, _ = car.Climatization.State.Text()
	assert.Equal(t, vehicle.ClimatizationOff, climState)
}

func TestUnsupportedCommand(t *testing.T) {
	r, _, car := setup(t)
	d := command.NewDispatcher(r)

	_, err := d.Execute(context.Background(), command.New("fly", car.Object(), nil))
	require.ErrorIs(t, err, command.ErrUnsupportedCommand)
}

func TestSetCommandWritesThroughConnector(t *testing.T) {
	r, _, car := setup(t)
	d := command.NewDispatcher(r)

	_, err := d.Execute(context.Background(), command.NewSet(car.Name, "family car"))
	require.NoError(t, err)

	name, ok := car.Name.Text()
	require.True(t, ok)
	assert.Equal(t, "family car", name)
}

func TestCustomVIN(t *testing.T) {
	conn, err := New(map[string]any{"vin": "wvwzzz1jz3w386752"})
	require.NoError(t, err)

	r := registry.New()
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })
	_, err = r.RegisterConnector(context.Background(), registry.Key{Type: Type, InstanceID: "custom"}, conn)
	require.NoError(t, err)

	_, ok := conn.Garage().Vehicle("WVWZZZ1JZ3W386752")
	assert.True(t, ok)
}
