package vehicle

import (
	"github.com/opencarlink/carlink-core/pkg/command"
	"github.com/opencarlink/carlink-core/pkg/tree"
	"github.com/opencarlink/carlink-core/pkg/units"
)

// Charging state enum members.
const (
	ChargingOff          = "off"
	ChargingReady        = "ready_for_charging"
	ChargingCharging     = "charging"
	ChargingConservation = "conservation"
	ChargingDischarging  = "discharging"
	ChargingError        = "error"
	ChargingUnsupported  = "unsupported"
	ChargingUnknown      = "unknown"
)

// Charging connection type enum members.
const (
	ChargingTypeAC      = "ac"
	ChargingTypeDC      = "dc"
	ChargingTypeInvalid = "invalid"
	ChargingTypeUnknown = "unknown"
)

// Charging is the charging subsystem of an electric or hybrid vehicle.
type Charging struct {
	obj *tree.Object

	State                *tree.Attribute
	Type                 *tree.Attribute
	Rate                 *tree.Attribute
	Power                *tree.Attribute
	EstimatedDateReached *tree.Attribute
}

func newCharging(parent *tree.Object) (*Charging, error) {
	obj := tree.MustObject("charging")
	if err := parent.AddChild(obj); err != nil {
		return nil, err
	}
	c := &Charging{
		obj:                  obj,
		State:                tree.MustAttribute("state", tree.KindEnum, tree.WithEnumValues(ChargingOff, ChargingReady, ChargingCharging, ChargingConservation, ChargingDischarging, ChargingError, ChargingUnsupported, ChargingUnknown)),
		Type:                 tree.MustAttribute("type", tree.KindEnum, tree.WithEnumValues(ChargingTypeAC, ChargingTypeDC, ChargingTypeInvalid, ChargingTypeUnknown)),
		Rate:                 tree.MustAttribute("rate", tree.KindFloat, tree.WithUnit(units.KilometersPerHour), tree.WithMinimum(0)),
		Power:                tree.MustAttribute("power", tree.KindFloat, tree.WithUnit(units.Kilowatt), tree.WithMinimum(0)),
		EstimatedDateReached: tree.MustAttribute("estimated_date_reached", tree.KindTime),
	}
	for _, attr := range []*tree.Attribute{c.State, c.Type, c.Rate, c.Power, c.EstimatedDateReached} {
		if err := obj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Object returns the charging subsystem's tree node.
func (c *Charging) Object() *tree.Object { return c.obj }

// StartCommand builds a start-charging command.
func (c *Charging) StartCommand() *command.Command {
	return command.New("start", c.obj, nil)
}

// StopCommand builds a stop-charging command.
func (c *Charging) StopCommand() *command.Command {
	return command.New("stop", c.obj, nil)
}
