// Package testutil provides small builders shared by the package tests:
// registry entries, history records and capturing loggers.
package testutil
