package vehicle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/opencarlink/carlink-core/pkg/tree"
)

// ErrDuplicateVIN is returned when a vehicle with the same VIN is
// already parked in the garage.
var ErrDuplicateVIN = errors.New("vehicle: duplicate vin")

// Garage holds the vehicles a connector instance knows about. It is a
// tree object named "garage" whose children are vehicles keyed by VIN.
type Garage struct {
	obj *tree.Object

	mu       sync.RWMutex
	vehicles map[string]*Vehicle
}

// NewGarage creates a garage attached to the given parent, usually a
// connector instance's subtree root.
func NewGarage(parent *tree.Object) (*Garage, error) {
	obj := tree.MustObject("garage")
	if err := parent.AddChild(obj); err != nil {
		return nil, fmt.Errorf("attaching garage: %w", err)
	}
	return &Garage{
		obj:      obj,
		vehicles: make(map[string]*Vehicle),
	}, nil
}

// Object returns the garage's tree node.
func (g *Garage) Object() *tree.Object { return g.obj }

// Add parks a vehicle. Fails with ErrDuplicateVIN when the VIN is
// already present.
func (g *Garage) Add(v *Vehicle) error {
	vin := v.VINString()

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.vehicles[vin]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateVIN, vin)
	}
	if err := g.obj.AddChild(v.Object()); err != nil {
		return fmt.Errorf("adding vehicle %s: %w", vin, err)
	}
	g.vehicles[vin] = v
	return nil
}

// Replace swaps the vehicle for a VIN, tearing down the old subtree
// first. A VIN not yet present is simply added.
func (g *Garage) Replace(v *Vehicle) error {
	vin := v.VINString()

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.vehicles[vin]; exists {
		if err := g.obj.RemoveChild(vin); err != nil {
			return fmt.Errorf("replacing vehicle %s: %w", vin, err)
		}
		delete(g.vehicles, vin)
	}
	if err := g.obj.AddChild(v.Object()); err != nil {
		return fmt.Errorf("replacing vehicle %s: %w", vin, err)
	}
	g.vehicles[vin] = v
	return nil
}

// Remove tears down the vehicle's subtree; every attribute below it
// fires a final removal notification.
func (g *Garage) Remove(vin string) error {
	vin = strings.ToUpper(strings.TrimSpace(vin))

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.vehicles[vin]; !exists {
		return fmt.Errorf("%w: %s", tree.ErrNotFound, vin)
	}
	if err := g.obj.RemoveChild(vin); err != nil {
		return err
	}
	delete(g.vehicles, vin)
	return nil
}

// Vehicle returns the vehicle with the given VIN.
func (g *Garage) Vehicle(vin string) (*Vehicle, bool) {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.vehicles[vin]
	return v, ok
}

// VINs returns the parked VINs, sorted.
func (g *Garage) VINs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.vehicles))
	for vin := range g.vehicles {
		out = append(out, vin)
	}
	sort.Strings(out)
	return out
}

// Vehicles returns the parked vehicles sorted by VIN.
func (g *Garage) Vehicles() []*Vehicle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Vehicle, 0, len(g.vehicles))
	for _, v := range g.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VINString() < out[j].VINString() })
	return out
}
