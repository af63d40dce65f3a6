// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug
// any structured logger. It also offers a richer MeshLogger with contextual
// helpers (engine, component) and domain specific logging helpers for hook
// firings, batches and transactions. Diagnostics are gated by the configured
// log level rather than a separate debug switch.
package logging
