// Package sim is a self-contained connector that simulates one electric
// vehicle without talking to any vendor backend. It is the connector
// used by default configurations and by integration tests: everything a
// real connector does — populating a garage, refreshing values,
// handling commands, reporting health — happens here against local
// state.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/opencarlink/carlink-core/pkg/command"
	"github.com/opencarlink/carlink-core/pkg/registry"
	"github.com/opencarlink/carlink-core/pkg/state"
	"github.com/opencarlink/carlink-core/pkg/tree"
	"github.com/opencarlink/carlink-core/pkg/vehicle"
)

// Type is the factory registration name of this connector.
const Type = "sim"

const defaultVIN = "SIM0000000TEST001"

// Connector simulates a single electric vehicle. Values drift a little
// on every fetch so observers have something to watch.
type Connector struct {
	vin string

	mu      sync.Mutex
	inst    *registry.Instance
	garage  *vehicle.Garage
	car     *vehicle.Vehicle
	drive   *vehicle.Drive
	level   float64
	climate string
}

// New creates a simulated connector. Config keys: "vin" (optional).
func New(config map[string]any) (*Connector, error) {
	vin := defaultVIN
	if v, ok := config["vin"].(string); ok && v != "" {
		vin = v
	}
	return &Connector{vin: vin, level: 80, climate: vehicle.ClimatizationOff}, nil
}

// Factory adapts New to the registry's factory signature.
func Factory(config map[string]any) (registry.Connector, error) {
	return New(config)
}

// Type implements registry.Connector.
func (c *Connector) Type() string { return Type }

// Version implements registry.Connector.
func (c *Connector) Version() string { return "1.0.0" }

// Startup builds the garage with one electric vehicle and connects.
func (c *Connector) Startup(ctx context.Context, inst *registry.Instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inst = inst
	inst.Connection().Set(state.ConnectionConnecting)

	garage, err := vehicle.NewGarage(inst.Root())
	if err != nil {
		return err
	}
	car, err := vehicle.New(c.vin)
	if err != nil {
		return err
	}
	if err := garage.Add(car); err != nil {
		return err
	}
	drive, err := car.Drives.AddElectricDrive("primary")
	if err != nil {
		return err
	}

	c.garage = garage
	c.car = car
	c.drive = drive

	if err := car.State.Set(vehicle.StateParked, tree.OriginConnector); err != nil {
		return err
	}
	if err := drive.Battery.TotalCapacity.Set(77.0, tree.OriginConnector); err != nil {
		return err
	}

	if err := c.refreshLocked(); err != nil {
		return err
	}

	inst.Connection().Set(state.ConnectionConnected)
	inst.Health().Publish(state.HealthOK)
	return nil
}

// FetchAll refreshes the simulated values.
func (c *Connector) FetchAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.car == nil {
		return fmt.Errorf("sim: not started")
	}
	// Simulated self-discharge, floored so the car stays usable.
	if c.level > 5 {
		c.level -= 0.1
	}
	return c.refreshLocked()
}

func (c *Connector) refreshLocked() error {
	if err := c.drive.Level.Set(c.level, tree.OriginConnector); err != nil {
		return err
	}
	// 77 kWh pack, flat 5 km/kWh estimate.
	if err := c.drive.Range.Set(c.level/100*77*5, tree.OriginConnector); err != nil {
		return err
	}
	if err := c.car.Climatization.State.Set(c.climate, tree.OriginConnector); err != nil {
		return err
	}
	if err := c.car.Odometer.Set(42000.0, tree.OriginConnector); err != nil {
		return err
	}
	return nil
}

// HandleCommand executes climatization start/stop locally and mirrors
// the effect into the tree, the way a real connector writes confirmed
// backend state.
func (c *Connector) HandleCommand(_ context.Context, cmd *command.Command) (command.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.car == nil {
		return nil, fmt.Errorf("sim: not started")
	}

	switch cmd.Name {
	case "start":
		if cmd.Target != c.car.Climatization.Object() {
			return nil, fmt.Errorf("%w: start targets climatization only", command.ErrUnsupportedCommand)
		}
		if temp, ok := cmd.Args[vehicle.ArgTargetTemperature].(float64); ok {
			if err := c.car.Climatization.Settings.TargetTemperature.Set(temp, tree.OriginCommand); err != nil {
				return nil, err
			}
		}
		c.climate = vehicle.ClimatizationHeating
		if err := c.car.Climatization.State.Set(c.climate, tree.OriginCommand); err != nil {
			return nil, err
		}
		return command.Result{"state": c.climate}, nil

	case "stop":
		if cmd.Target != c.car.Climatization.Object() {
			return nil, fmt.Errorf("%w: stop targets climatization only", command.ErrUnsupportedCommand)
		}
		c.climate = vehicle.ClimatizationOff
		if err := c.car.Climatization.State.Set(c.climate, tree.OriginCommand); err != nil {
			return nil, err
		}
		return command.Result{"state": c.climate}, nil

	case "set":
		attr, ok := cmd.TargetAttribute()
		if !ok {
			return nil, fmt.Errorf("%w: set targets attributes", command.ErrUnsupportedCommand)
		}
		if err := attr.Set(cmd.Args[command.ArgValue], tree.OriginCommand); err != nil {
			return nil, err
		}
		return command.Result{"written": attr.Path()}, nil

	default:
		return nil, fmt.Errorf("%w: %q", command.ErrUnsupportedCommand, cmd.Name)
	}
}

// Healthy implements registry.Connector.
func (c *Connector) Healthy(context.Context) state.HealthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.car == nil {
		return state.HealthUnknown
	}
	return state.HealthOK
}

// Shutdown implements registry.Connector.
func (c *Connector) Shutdown(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inst != nil {
		c.inst.Connection().Set(state.ConnectionDisconnecting)
	}
	c.car = nil
	return nil
}

// Garage exposes the simulated garage for tests.
func (c *Connector) Garage() *vehicle.Garage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.garage
}
