// Package codec converts logical keys and values to and from the string
// cells of the backing table.
package codec

import (
	"encoding/hex"
	"fmt"
)

// Encode returns the table representation of b: lowercase hex.
//
// Hex is a fixed two characters per byte, so the lexicographic order of
// encoded strings matches the lexicographic order of the original byte
// strings. The range iterator's ORDER BY depends on this property.
//
// The encoding is part of the on-table data format. Changing it makes
// previously written tables unreadable.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}

// Decode reverses Encode. It fails on cells not produced by Encode.
func Decode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("malformed cell %q: %w", s, err)
	}
	return b, nil
}
