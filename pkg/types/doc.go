// Package types defines the Task entity, the Persister and Scheduler
// contracts, configuration, and the standard error values for the taskly
// engine. Callers outside the engine (CLI, HTTP) depend only on this package
// and on the Store surface in internal/store.
package types
