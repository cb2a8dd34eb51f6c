package store

import (
	"fmt"

	"github.com/roach88/tesseract/internal/ir"
)

// marshalSnapshot converts a query snapshot to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so the stored text hashes to the fingerprint.
// A nil snapshot (failed resolution) is stored as the empty string.
func marshalSnapshot(snapshot ir.Object) (string, error) {
	if snapshot == nil {
		return "", nil
	}
	data, err := ir.MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// unmarshalSnapshot parses canonical JSON TEXT back into an ir.Object.
// ir.Decode keeps integers exact, so a round trip preserves the fingerprint.
func unmarshalSnapshot(data string) (ir.Object, error) {
	if data == "" {
		return nil, nil
	}
	v, err := ir.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("unmarshal snapshot: expected object, got %T", v)
	}
	return obj, nil
}
