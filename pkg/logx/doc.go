// Package logx configures framesched's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional eventbus sink (min-level + rate limiting) so operators can
//     watch warnings/errors on the same bus as task lifecycle events
package logx
