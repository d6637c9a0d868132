// Package session owns one loaded model and the conversation built on it.
// It is structured into small files by concern:
//
//   - session.go: Session type, Config, New/Open, lifecycle (Load, Close) and getters.
//   - types.go: State, GenerationMetrics.
//   - params.go: InferenceParams, defaults and validation.
//   - errors.go: error types and helpers (IsSessionBusy, IsSessionClosed, IsLoadError).
//   - history.go: AddMessage, AddSystemPrompt and prompt rendering.
//   - admission.go: single in-flight generation slot.
//   - generate.go: GenerateResponse and the pull-based TokenStream.
//   - stream_ndjson.go: StreamChat, NDJSON framing of a generation for HTTP.
//   - status_report.go: Status projection for /status.
//   - metrics.go: Prometheus generation counters.
//   - events.go, eventpub_memory.go: lifecycle events.
//
// States move Unloaded -> Loading -> Ready <-> Generating, and any of
// Unloaded or Ready -> Closed. Only one of Loading or Generating can be in
// progress; every other operation attempted meanwhile fails fast with a
// busy error rather than blocking.
package session
