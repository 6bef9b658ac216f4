// Package vehicle builds the car-shaped portion of the data tree.
//
// A connector instance typically hangs one Garage off its subtree root
// and fills it with vehicles as the backend reports them. Each Vehicle
// is a pre-wired bundle of objects and typed attributes — drives,
// doors, windows, climatization, charging, position, software — so
// connectors populate values instead of re-inventing structure, and
// plugins find the same paths regardless of vendor.
//
// All structure here is built from the tree package; the usual rules
// apply (owning connector writes values, commands go through the
// dispatcher).
package vehicle
