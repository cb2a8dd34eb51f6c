// Package store provides SQLite-backed durable storage for the resolution log.
//
// Every resolution the engine performs may be appended as one row holding the
// encoded request, the canonical query snapshot and its fingerprint, or the
// error code when resolution failed. The log is append-only; rows are never
// updated.
//
// # Ordering
//
// All reads order by seq (a logical clock, never timestamps) and break ties
// with ORDER BY seq ASC, id COLLATE BINARY ASC, so listings are identical
// across runs and replays.
//
// # Layout version
//
// The file records LogVersion in PRAGMA user_version. Open sets it on a fresh
// file and refuses a file carrying a newer version with ErrUnsupportedVersion.
//
// Connections run in WAL mode with a 5 second busy timeout.
//
// Snapshots are stored as RFC 8785 canonical JSON produced by
// ir.MarshalCanonical, so the stored text hashes to the stored fingerprint.
package store
