// Package manager owns the process-wide inference session and exposes the
// operations the HTTP API and the CLI need. It is structured into small
// files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: Config and defaults.
//   - errors.go: error types carrying HTTP status codes.
//   - ensure.go: loading and switching the model behind the session.
//   - infer.go: chat entry points (streaming and system prompt).
//   - status_report.go: Status and model listing.
//
// Exactly one session is live at a time. Switching models closes the current
// session and loads the new model into a fresh one, so a switch while a
// response is streaming fails with the session's busy error.
package manager
