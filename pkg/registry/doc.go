// Package registry manages the lifecycle of connector and plugin
// instances and the shared data tree they populate.
//
// # Architecture
//
//	                      ┌──────────────┐
//	                      │   Registry   │
//	                      │  (lifecycle) │
//	                      └──────┬───────┘
//	          ┌──────────────────┼──────────────────┐
//	          ▼                  ▼                  ▼
//	   /connectors/vw:a   /connectors/vw:b   /plugins/mirror:default
//	   (owned subtree)    (owned subtree)    (owned subtree)
//	          │                  │
//	   ConnectionMachine  ConnectionMachine
//	   HealthMachine      HealthMachine
//
// Each registered instance gets an isolated subtree under /connectors
// or /plugins, named "<type>:<id>", with an owner reference so command
// routing can find its way back. Multiple instances of the same
// connector type coexist; their subtrees and state machines never
// touch.
//
// The registry has an explicit lifecycle: construct with New, register
// instances, and call Shutdown once. Shutdown stops every instance,
// continuing past individual failures, and reports them all in a single
// aggregate error that keeps each instance's identity attached to its
// cause.
//
// There is no package-level singleton. Callers hold the *Registry they
// created and pass it where it is needed.
package registry
