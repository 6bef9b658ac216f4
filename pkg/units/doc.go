// Package units defines the measurement units recognised by CarLink Core
// and lossless conversion between units of the same dimension.
//
// Units are grouped by Dimension (length, energy, temperature, ...).
// Conversion is pure: it returns a new value and never touches the
// attribute that holds the original.
//
// # Usage
//
//	miles, err := units.Convert(100, units.Kilometer, units.Mile)
//	if errors.Is(err, units.ErrIncompatibleUnit) {
//	    // dimensions differ, e.g. km -> kWh
//	}
//
// Length, energy, speed and power conversions are linear. Temperature
// conversions are affine (offset plus scale), so they are handled
// separately from the factor table.
package units
