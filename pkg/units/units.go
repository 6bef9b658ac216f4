package units

import (
	"errors"
	"fmt"
)

// ErrIncompatibleUnit is returned when a conversion is requested between
// units of different dimensions.
var ErrIncompatibleUnit = errors.New("units: incompatible unit")

// ErrUnknownUnit is returned when a unit is not recognised.
var ErrUnknownUnit = errors.New("units: unknown unit")

// Dimension is the physical quantity a unit measures.
type Dimension string

// Dimension constants.
const (
	DimensionNone        Dimension = "none"
	DimensionLength      Dimension = "length"
	DimensionEnergy      Dimension = "energy"
	DimensionTemperature Dimension = "temperature"
	DimensionLevel       Dimension = "level"
	DimensionSpeed       Dimension = "speed"
	DimensionPower       Dimension = "power"
)

// Unit identifies a single unit of measurement.
type Unit string

// None is the unit of dimensionless values (counts, levels without scale).
const None Unit = ""

// Length units.
const (
	Meter     Unit = "m"
	Kilometer Unit = "km"
	Mile      Unit = "mi"
	Foot      Unit = "ft"
)

// Energy units.
const (
	WattHour     Unit = "Wh"
	KilowattHour Unit = "kWh"
)

// Temperature units.
const (
	Celsius    Unit = "°C"
	Fahrenheit Unit = "°F"
	Kelvin     Unit = "K"
)

// Percentage is the unit of level attributes (battery level, fuel level).
const Percentage Unit = "%"

// Speed units.
const (
	KilometersPerHour Unit = "km/h"
	MilesPerHour      Unit = "mph"
)

// Power units.
const (
	Watt     Unit = "W"
	Kilowatt Unit = "kW"
)

// factors maps each linear unit to its dimension and the factor that
// converts a value into the dimension's base unit (meter, watt hour,
// km/h, watt). Temperature is affine and handled in Convert directly.
var factors = map[Unit]struct {
	dimension Dimension
	toBase    float64
}{
	Meter:     {DimensionLength, 1},
	Kilometer: {DimensionLength, 1000},
	Mile:      {DimensionLength, 1609.344},
	Foot:      {DimensionLength, 0.3048},

	WattHour:     {DimensionEnergy, 1},
	KilowattHour: {DimensionEnergy, 1000},

	Percentage: {DimensionLevel, 1},

	KilometersPerHour: {DimensionSpeed, 1},
	MilesPerHour:      {DimensionSpeed, 1.609344},

	Watt:     {DimensionPower, 1},
	Kilowatt: {DimensionPower, 1000},
}

// DimensionOf returns the dimension a unit measures.
// The empty unit has DimensionNone; unrecognised units return
// DimensionNone with ErrUnknownUnit.
func DimensionOf(u Unit) (Dimension, error) {
	if u == None {
		return DimensionNone, nil
	}
	if u == Celsius || u == Fahrenheit || u == Kelvin {
		return DimensionTemperature, nil
	}
	if f, ok := factors[u]; ok {
		return f.dimension, nil
	}
	return DimensionNone, fmt.Errorf("%w: %q", ErrUnknownUnit, u)
}

// Compatible reports whether two units share a dimension and can be
// converted into each other.
func Compatible(a, b Unit) bool {
	da, errA := DimensionOf(a)
	db, errB := DimensionOf(b)
	if errA != nil || errB != nil {
		return false
	}
	return da == db
}

// Convert converts a value from one unit to another.
// Returns ErrIncompatibleUnit when the dimensions differ and
// ErrUnknownUnit when either unit is not recognised.
func Convert(v float64, from, to Unit) (float64, error) {
	if from == to {
		return v, nil
	}

	df, err := DimensionOf(from)
	if err != nil {
		return 0, err
	}
	dt, err := DimensionOf(to)
	if err != nil {
		return 0, err
	}
	if df != dt {
		return 0, fmt.Errorf("%w: cannot convert %q to %q", ErrIncompatibleUnit, from, to)
	}

	if df == DimensionTemperature {
		return convertTemperature(v, from, to), nil
	}

	// Linear conversion through the dimension's base unit.
	base := v * factors[from].toBase
	return base / factors[to].toBase, nil
}

// convertTemperature converts between °C, °F and K via Celsius.
func convertTemperature(v float64, from, to Unit) float64 {
	var c float64
	switch from {
	case Fahrenheit:
		c = (v - 32) * 5 / 9
	case Kelvin:
		c = v - 273.15
	default:
		c = v
	}
	switch to {
	case Fahrenheit:
		return c*9/5 + 32
	case Kelvin:
		return c + 273.15
	default:
		return c
	}
}
