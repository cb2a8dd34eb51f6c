// Package ir provides the canonical value model used to fingerprint resolved
// queries and requests.
//
// Resolved queries are converted to ir.Object snapshots, encoded as RFC 8785
// canonical JSON and hashed with domain separation. ir imports nothing
// internal so every other package may depend on it.
//
// Key constraints:
//   - no float values (numbers are Int; decimals travel as strings)
//   - no null values (absent optional fields are omitted)
//   - object keys ordered by UTF-16 code units
package ir
