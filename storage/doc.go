// Package storage houses concrete implementations of core.Storage. The
// interface itself lives in the core package to centralize domain contracts;
// keeping only implementations here prevents higher level packages (app,
// state, proactive) from depending on concrete persistence.
//
// Memory is a volatile map-backed store suited to tests and local
// development. The sqlite sub-package provides a durable single-file backend.
// Add additional backends (Redis, Postgres, blob stores) in sub-packages
// without changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package storage
