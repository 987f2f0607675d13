// Package frame implements a cooperative, frame-driven task scheduler.
//
// # Overview
//
// Callers register two kinds of deferred work under an opaque Handle:
// recurring tasks (Interval) and one-shot delayed tasks (Timeout). The
// scheduler is driven by a host tick primitive that invokes a callback once
// per frame; after every tick the scheduler re-requests the next one as long
// as at least one task remains registered (a self-chaining tick).
//
// # Lifecycle
//
// Registration only writes the registry entry. Exec() marks the scheduler
// running, stamps start/last-fire timestamps for every registered task, and
// requests the first tick. Tasks registered while running are stamped and
// driven immediately by the registration call itself. Exec() is idempotent;
// subsequent calls are no-ops.
//
// Lock() suppresses a task without losing its schedule; Unlock() resumes it.
// Cancel() removes a task from both registries and the lock set. Absence from
// the registries is the sole termination signal for the tick chain: once both
// registries are empty the chain stops, and any later registration restarts
// it.
//
// # Lock semantics
//
// Locking an interval pauses fire-eligibility without touching its last-fire
// timestamp, so delta keeps accumulating against the same wall-clock base.
// Locking a timeout does not advance its deadline; once unlocked it fires on
// the first tick where the deadline has passed.
//
// # Concurrency
//
// All task callbacks run on the host ticker's execution stream. Callbacks may
// reenter the scheduler (cancel themselves, lock other tasks, register new
// work); the internal mutex is never held across a callback invocation, and
// mutations are visible to the very next per-entry decision.
package frame
