// Package tree implements the shared object tree at the heart of CarLink Core.
//
// Every connector instance publishes its live data into a subtree of typed,
// unit-aware, validated Attributes grouped by Objects. Plugins read the same
// tree and subscribe to change notifications. The tree is the only contract
// between connectors and plugins; neither ever talks to the other directly.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                          Object Tree                          │
//	│                                                               │
//	│  ┌───────────────┐   ┌────────────────┐   ┌───────────────┐   │
//	│  │    Object     │   │   Attribute    │   │     Hooks     │   │
//	│  │  (object.go)  │──▶│ (attribute.go) │──▶│  (hooks.go)   │   │
//	│  │               │   │                │   │               │   │
//	│  │ • children    │   │ • tagged kinds │   │ • early/veto  │   │
//	│  │ • attributes  │   │ • units/bounds │   │ • late/observe│   │
//	│  │ • path lookup │   │ • unset/null   │   │ • identity    │   │
//	│  │ • AsDict      │   │ • serialized   │   │   dedup       │   │
//	│  └───────────────┘   └────────────────┘   └───────────────┘   │
//	└───────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Object: a named node holding uniquely named child objects and attributes
//   - Attribute: a typed leaf value (bool, int, float, string, enum, time,
//     duration, blob) with unit, bounds, tags, enabled flag and hooks
//   - Hook: a change callback; early hooks can veto before commit, late hooks
//     observe after commit
//   - Owner: non-owning back-reference from a subtree root to the connector
//     instance that exclusively writes the subtree
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Structural mutation
// (adding or removing a child) locks only the parent node, so readers of
// disjoint subtrees never contend. Two Set calls on the same Attribute are
// serialized; their relative order across goroutines is up to the callers.
//
// Early hooks run synchronously inside the write path and must not call back
// into the attribute being written. Late hooks run after the value lock is
// released and may read the tree freely, but they must not block on unrelated
// I/O; hand blocking work off to a dedicated goroutine.
package tree
