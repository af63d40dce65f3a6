// Package core defines the shared data model for enginemesh: registry
// entries, hook phases and registrations, history records, the error
// taxonomy and the snapshot store contract. Higher level packages (engine,
// mesh, store) depend on core; core depends on nothing but the standard
// library and uuid.
package core
