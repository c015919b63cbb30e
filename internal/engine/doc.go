// Package engine implements the discrete-event scheduler that drives
// simulated time for the fleet.
//
// Device behaviours never block or sleep; all waiting is expressed as
// registering a future callback. The engine keeps a priority queue of
// pending callbacks ordered by due time (ties broken by registration
// order) and dispatches them one at a time, so device state is only ever
// mutated from a single goroutine.
//
// # Cancellation
//
// Recurring tick chains normally stop by not re-registering themselves.
// For externally forced restarts (battery replacement re-arming the decay
// chain) events carry a string key, and Cancel(key) idempotently drops
// any still-pending events under that key before a new chain is started.
// This prevents duplicate in-flight callbacks.
//
// # Pacing
//
// Run drains the schedule as fast as possible up to a horizon; this is
// the mode used for reproducible batch runs and tests. RunRealtime paces
// dispatch 1:1 against the wall clock for interactive use.
package engine
