package vehicle

import (
	"github.com/opencarlink/carlink-core/pkg/command"
	"github.com/opencarlink/carlink-core/pkg/tree"
	"github.com/opencarlink/carlink-core/pkg/units"
)

// Climatization state enum members.
const (
	ClimatizationOff         = "off"
	ClimatizationHeating     = "heating"
	ClimatizationCooling     = "cooling"
	ClimatizationVentilation = "ventilation"
	ClimatizationInvalid     = "invalid"
	ClimatizationUnknown     = "unknown"
)

// ArgTargetTemperature is the climatization start command's argument
// carrying the requested cabin temperature in °C.
const ArgTargetTemperature = "target_temperature"

// Climatization is the cabin heating and cooling subsystem.
type Climatization struct {
	obj *tree.Object

	State                *tree.Attribute
	EstimatedDateReached *tree.Attribute
	Settings             *ClimatizationSettings
}

// ClimatizationSettings holds the configured climatization behavior.
type ClimatizationSettings struct {
	obj *tree.Object

	TargetTemperature     *tree.Attribute
	WindowHeating         *tree.Attribute
	SeatHeating           *tree.Attribute
	ClimatizationAtUnlock *tree.Attribute
}

func newClimatization(parent *tree.Object) (*Climatization, error) {
	obj := tree.MustObject("climatization")
	if err := parent.AddChild(obj); err != nil {
		return nil, err
	}
	c := &Climatization{
		obj:                  obj,
		State:                tree.MustAttribute("state", tree.KindEnum, tree.WithEnumValues(ClimatizationOff, ClimatizationHeating, ClimatizationCooling, ClimatizationVentilation, ClimatizationInvalid, ClimatizationUnknown)),
		EstimatedDateReached: tree.MustAttribute("estimated_date_reached", tree.KindTime),
	}
	for _, attr := range []*tree.Attribute{c.State, c.EstimatedDateReached} {
		if err := obj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}

	settingsObj := tree.MustObject("settings")
	if err := obj.AddChild(settingsObj); err != nil {
		return nil, err
	}
	c.Settings = &ClimatizationSettings{
		obj:                   settingsObj,
		TargetTemperature:     tree.MustAttribute("target_temperature", tree.KindFloat, tree.WithUnit(units.Celsius), tree.WithBounds(15, 30), tree.WithPrecision(1)),
		WindowHeating:         tree.MustAttribute("window_heating", tree.KindBool),
		SeatHeating:           tree.MustAttribute("seat_heating", tree.KindBool),
		ClimatizationAtUnlock: tree.MustAttribute("climatization_at_unlock", tree.KindBool),
	}
	for _, attr := range []*tree.Attribute{c.Settings.TargetTemperature, c.Settings.WindowHeating, c.Settings.SeatHeating, c.Settings.ClimatizationAtUnlock} {
		if err := settingsObj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Object returns the climatization subsystem's tree node.
func (c *Climatization) Object() *tree.Object { return c.obj }

// StartCommand builds a start command with the requested cabin
// temperature.
func (c *Climatization) StartCommand(targetTemperature float64) *command.Command {
	return command.New("start", c.obj, map[string]any{
		ArgTargetTemperature: targetTemperature,
	})
}

// StopCommand builds a stop command.
func (c *Climatization) StopCommand() *command.Command {
	return command.New("stop", c.obj, nil)
}
