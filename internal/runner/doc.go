// Package runner hosts the frame scheduler inside the daemon.
//
// # Overview
//
// The runner owns the wall ticker driving the scheduler, registers the tasks
// declared in config (upserted by name across hot reloads), and runs the
// background housekeeping jobs: pruning fire history and logging periodic
// scheduler snapshots on cron schedules.
//
// # Lifecycle
//
// The Service can be started once and reconfigured at runtime via Apply()
// (frame rate, task set, housekeeping schedules, retention). Declaring tasks
// while stopped is supported: definitions are stored and armed on Start().
package runner
