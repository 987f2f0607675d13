// Package history provides an optional persistence layer recording task
// fires, so operators can answer "when did this task last run, and how late
// was it" across restarts.
//
// It currently supports:
//   - Append-only fire records (one row per interval fire / timeout expiry)
//   - Bounded retention via Prune, driven by the runner's housekeeping job
package history
