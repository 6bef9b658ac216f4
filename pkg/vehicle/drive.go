package vehicle

import (
	"fmt"
	"sort"
	"sync"

	"github.com/opencarlink/carlink-core/pkg/tree"
	"github.com/opencarlink/carlink-core/pkg/units"
)

// Drive type enum members.
const (
	DriveElectric = "electric"
	DriveFuel     = "fuel"
	DriveGasoline = "gasoline"
	DriveDiesel   = "diesel"
	DriveCNG      = "cng"
	DriveUnknown  = "unknown"
)

// Drives groups a vehicle's drive trains. Pure combustion and pure
// electric cars have one drive; hybrids have both.
type Drives struct {
	obj        *tree.Object
	TotalRange *tree.Attribute

	mu     sync.RWMutex
	drives map[string]*Drive
}

func newDrives(parent *tree.Object) (*Drives, error) {
	obj := tree.MustObject("drives")
	if err := parent.AddChild(obj); err != nil {
		return nil, err
	}
	d := &Drives{
		obj:        obj,
		TotalRange: tree.MustAttribute("total_range", tree.KindFloat, tree.WithUnit(units.Kilometer), tree.WithMinimum(0)),
		drives:     make(map[string]*Drive),
	}
	if err := obj.AddAttribute(d.TotalRange); err != nil {
		return nil, err
	}
	return d, nil
}

// Object returns the drives subsystem's tree node.
func (d *Drives) Object() *tree.Object { return d.obj }

// Drive returns the drive with the given id.
func (d *Drives) Drive(id string) (*Drive, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dr, ok := d.drives[id]
	return dr, ok
}

// All returns the drives sorted by id.
func (d *Drives) All() []*Drive {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Drive, 0, len(d.drives))
	for _, dr := range d.drives {
		out = append(out, dr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].obj.Name() < out[j].obj.Name() })
	return out
}

// Drive is one drive train: its type, remaining range and fill level,
// plus a battery or fuel tank depending on the type.
type Drive struct {
	obj *tree.Object

	Type  *tree.Attribute
	Range *tree.Attribute
	Level *tree.Attribute

	// Battery is set for electric drives, FuelTank for combustion
	// drives; the other is nil.
	Battery  *Battery
	FuelTank *FuelTank
}

// Object returns the drive's tree node.
func (d *Drive) Object() *tree.Object { return d.obj }

func (ds *Drives) newDrive(id, driveType string) (*Drive, error) {
	obj, err := tree.NewObject(id)
	if err != nil {
		return nil, fmt.Errorf("drive %q: %w", id, err)
	}

	d := &Drive{
		obj:   obj,
		Type:  tree.MustAttribute("type", tree.KindEnum, tree.WithEnumValues(DriveElectric, DriveFuel, DriveGasoline, DriveDiesel, DriveCNG, DriveUnknown)),
		Range: tree.MustAttribute("range", tree.KindFloat, tree.WithUnit(units.Kilometer), tree.WithMinimum(0)),
		Level: tree.MustAttribute("level", tree.KindFloat, tree.WithUnit(units.Percentage), tree.WithBounds(0, 100)),
	}
	for _, attr := range []*tree.Attribute{d.Type, d.Range, d.Level} {
		if err := obj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.obj.AddChild(obj); err != nil {
		return nil, fmt.Errorf("adding drive %q: %w", id, err)
	}
	ds.drives[id] = d

	if err := d.Type.Set(driveType, tree.OriginInternal); err != nil {
		return nil, err
	}
	return d, nil
}

// AddElectricDrive creates an electric drive with an attached battery.
func (ds *Drives) AddElectricDrive(id string) (*Drive, error) {
	d, err := ds.newDrive(id, DriveElectric)
	if err != nil {
		return nil, err
	}
	if d.Battery, err = newBattery(d.obj); err != nil {
		return nil, err
	}
	return d, nil
}

// AddCombustionDrive creates a combustion drive of the given fuel type
// with an attached fuel tank.
func (ds *Drives) AddCombustionDrive(id, fuelType string) (*Drive, error) {
	d, err := ds.newDrive(id, fuelType)
	if err != nil {
		return nil, err
	}
	if d.FuelTank, err = newFuelTank(d.obj); err != nil {
		return nil, err
	}
	return d, nil
}

// Battery holds the high-voltage battery figures of an electric drive.
type Battery struct {
	obj *tree.Object

	TotalCapacity     *tree.Attribute
	AvailableCapacity *tree.Attribute
	Temperature       *tree.Attribute
}

func newBattery(parent *tree.Object) (*Battery, error) {
	obj := tree.MustObject("battery")
	if err := parent.AddChild(obj); err != nil {
		return nil, err
	}
	b := &Battery{
		obj:               obj,
		TotalCapacity:     tree.MustAttribute("total_capacity", tree.KindFloat, tree.WithUnit(units.KilowattHour), tree.WithMinimum(0)),
		AvailableCapacity: tree.MustAttribute("available_capacity", tree.KindFloat, tree.WithUnit(units.KilowattHour), tree.WithMinimum(0)),
		Temperature:       tree.MustAttribute("temperature", tree.KindFloat, tree.WithUnit(units.Celsius)),
	}
	for _, attr := range []*tree.Attribute{b.TotalCapacity, b.AvailableCapacity, b.Temperature} {
		if err := obj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Object returns the battery's tree node.
func (b *Battery) Object() *tree.Object { return b.obj }

// FuelTank holds the fill level of a combustion drive's tank.
type FuelTank struct {
	obj   *tree.Object
	Level *tree.Attribute
}

func newFuelTank(parent *tree.Object) (*FuelTank, error) {
	obj := tree.MustObject("fuel_tank")
	if err := parent.AddChild(obj); err != nil {
		return nil, err
	}
	f := &FuelTank{
		obj:   obj,
		Level: tree.MustAttribute("level", tree.KindFloat, tree.WithUnit(units.Percentage), tree.WithBounds(0, 100)),
	}
	if err := obj.AddAttribute(f.Level); err != nil {
		return nil, err
	}
	return f, nil
}

// Object returns the fuel tank's tree node.
func (f *FuelTank) Object() *tree.Object { return f.obj }
