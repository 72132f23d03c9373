// Package history houses concrete implementations of run result storage.
// A Store retains terminal flow results keyed by run ID so callers can
// inspect past runs after the orchestrator has returned.
//
// Add additional backends (Redis, Postgres, etc.) in sub‑packages without
// changing any calling code – only the wiring layer needs to decide which
// implementation to instantiate.
package history
