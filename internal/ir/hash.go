package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes keep hashes of different record kinds from colliding.
// The version suffix allows changing the snapshot layout later.
const (
	DomainQuery   = "tesseract/query/v1"
	DomainRequest = "tesseract/request/v1"
	DomainSchema  = "tesseract/schema/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryFingerprint hashes the canonical form of a query snapshot.
// Structurally equal queries have equal fingerprints.
func QueryFingerprint(snapshot Object) (string, error) {
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("QueryFingerprint: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// RequestHash hashes an encoded request document.
func RequestHash(encoded []byte) string {
	return hashWithDomain(DomainRequest, encoded)
}

// SchemaHash hashes raw schema source bytes, so log entries can tell which
// schema revision produced them.
func SchemaHash(source []byte) string {
	return hashWithDomain(DomainSchema, source)
}

// MustQueryFingerprint is like QueryFingerprint but panics on error.
// Use only in tests or when the snapshot is known to be valid.
func MustQueryFingerprint(snapshot Object) string {
	fp, err := QueryFingerprint(snapshot)
	if err != nil {
		panic(err)
	}
	return fp
}
