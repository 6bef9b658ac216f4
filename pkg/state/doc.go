// Package state holds the per-instance connection and health state
// machines for CarLink Core.
//
// ConnectionState tracks a connector instance's link to its vendor
// backend (disconnected, connecting, connected, ...). HealthState is an
// orthogonal liveness heartbeat (ok, degraded, error) published on a
// fixed cadence: a connector can be connected yet degraded, or
// disconnected yet ok during intentional idle.
//
// The core only stores the latest value of each machine and notifies
// subscribers on change. Which transitions are legal is the connector's
// business; the core does not enforce a universal state diagram.
//
// Both machines are safe for concurrent use, and subscriber registration
// is deduplicated by identity the same way attribute hooks are.
package state
