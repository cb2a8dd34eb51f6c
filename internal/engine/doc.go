// Package engine runs resolutions on behalf of the CLI and long-lived hosts.
//
// The resolver itself is pure; the engine adds the surrounding machinery:
//
//   - the current schema revision, held behind an atomic pointer and swapped
//     wholesale by Reload, so every resolution sees one consistent schema
//   - query fingerprints (canonical snapshot, domain-separated SHA-256)
//   - structured logging of every resolution via log/slog
//   - an optional append-only log in internal/store, stamped by a logical
//     Clock and never by wall time
//   - bounded concurrent batches (ResolveBatch)
//   - Replay, which re-resolves logged requests and reports fingerprint drift
//
// Resolver errors are returned unchanged; the engine's own failures are
// *RuntimeError values with a Code.
package engine
