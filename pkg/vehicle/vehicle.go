package vehicle

import (
	"fmt"
	"strings"

	"github.com/opencarlink/carlink-core/pkg/tree"
	"github.com/opencarlink/carlink-core/pkg/units"
)

// Vehicle state enum members.
const (
	StateOffline    = "offline"
	StateParked     = "parked"
	StateIgnitionOn = "ignition_on"
	StateDriving    = "driving"
	StateInvalid    = "invalid"
	StateUnknown    = "unknown"
)

// Vehicle type enum members.
const (
	TypeElectric = "electric"
	TypeFuel     = "fuel"
	TypeHybrid   = "hybrid"
	TypeGasoline = "gasoline"
	TypeDiesel   = "diesel"
	TypeCNG      = "cng"
	TypeLPG      = "lpg"
	TypeUnknown  = "unknown"
)

// Vehicle is one car in a garage: a tree object named by its VIN with
// the standard attribute and subsystem layout pre-attached.
type Vehicle struct {
	obj *tree.Object

	VIN          *tree.Attribute
	Name         *tree.Attribute
	Model        *tree.Attribute
	Type         *tree.Attribute
	LicensePlate *tree.Attribute
	Odometer     *tree.Attribute
	State        *tree.Attribute

	Drives        *Drives
	Doors         *Doors
	Windows       *Windows
	Climatization *Climatization
	Charging      *Charging
	Position      *Position
	Software      *Software
}

// New builds a detached vehicle for the given VIN. The VIN is
// normalized to upper case and becomes the node name; attach the
// vehicle to a garage with Garage.Add.
func New(vin string) (*Vehicle, error) {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	if vin == "" {
		return nil, fmt.Errorf("%w: empty vin", tree.ErrInvalidName)
	}

	obj, err := tree.NewObject(vin)
	if err != nil {
		return nil, fmt.Errorf("vehicle %q: %w", vin, err)
	}

	v := &Vehicle{
		obj:          obj,
		VIN:          tree.MustAttribute("vin", tree.KindString),
		Name:         tree.MustAttribute("name", tree.KindString),
		Model:        tree.MustAttribute("model", tree.KindString),
		Type:         tree.MustAttribute("type", tree.KindEnum, tree.WithEnumValues(TypeElectric, TypeFuel, TypeHybrid, TypeGasoline, TypeDiesel, TypeCNG, TypeLPG, TypeUnknown)),
		LicensePlate: tree.MustAttribute("license_plate", tree.KindString),
		Odometer:     tree.MustAttribute("odometer", tree.KindFloat, tree.WithUnit(units.Kilometer), tree.WithMinimum(0)),
		State:        tree.MustAttribute("state", tree.KindEnum, tree.WithEnumValues(StateOffline, StateParked, StateIgnitionOn, StateDriving, StateInvalid, StateUnknown)),
	}
	for _, attr := range []*tree.Attribute{v.VIN, v.Name, v.Model, v.Type, v.LicensePlate, v.Odometer, v.State} {
		if err := obj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}
	if err := v.VIN.Set(vin, tree.OriginInternal); err != nil {
		return nil, err
	}

	if v.Drives, err = newDrives(obj); err != nil {
		return nil, err
	}
	if v.Doors, err = newDoors(obj); err != nil {
		return nil, err
	}
	if v.Windows, err = newWindows(obj); err != nil {
		return nil, err
	}
	if v.Climatization, err = newClimatization(obj); err != nil {
		return nil, err
	}
	if v.Charging, err = newCharging(obj); err != nil {
		return nil, err
	}
	if v.Position, err = newPosition(obj); err != nil {
		return nil, err
	}
	if v.Software, err = newSoftware(obj); err != nil {
		return nil, err
	}
	return v, nil
}

// Object returns the vehicle's tree node.
func (v *Vehicle) Object() *tree.Object { return v.obj }

// VINString returns the normalized VIN the vehicle was created with.
func (v *Vehicle) VINString() string { return v.obj.Name() }

// Software carries the vehicle's reported firmware version and its
// release date.
type Software struct {
	obj     *tree.Object
	Version *tree.Attribute
	Date    *tree.Attribute
}

func newSoftware(parent *tree.Object) (*Software, error) {
	obj := tree.MustObject("software")
	if err := parent.AddChild(obj); err != nil {
		return nil, err
	}
	s := &Software{
		obj:     obj,
		Version: tree.MustAttribute("version", tree.KindString),
		Date:    tree.MustAttribute("date", tree.KindTime),
	}
	for _, attr := range []*tree.Attribute{s.Version, s.Date} {
		if err := obj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Object returns the software subsystem's tree node.
func (s *Software) Object() *tree.Object { return s.obj }
