// Package mesh assembles engine instances into a cooperating set: typed
// engines (state, memory, narrative, archetype, symbol, gesture) built on
// the generic engine package, synergy links executed in dependency order,
// and YAML configuration for wiring both.
//
// Engines notify each other through the bus and explicit interfaces
// (Notifier, core.SnapshotStore); the compiler enforces the contract shapes.
package mesh
