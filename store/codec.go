package store

import (
	"fmt"

	"github.com/jacentio/lattice/internal/codec"
)

// encodeKey converts a logical key into its table representation,
// enforcing the configured size limit.
func (s *Store) encodeKey(key []byte) (string, error) {
	if len(key) > s.cfg.KeySize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrKeyTooLarge, len(key), s.cfg.KeySize)
	}
	return codec.Encode(key), nil
}

// encodeValue converts a logical value into its table representation,
// enforcing the configured size limit.
func (s *Store) encodeValue(value []byte) (string, error) {
	if len(value) > s.cfg.ValueSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrValueTooLarge, len(value), s.cfg.ValueSize)
	}
	return codec.Encode(value), nil
}

// decodeCell converts a stored cell back into bytes. A cell that was not
// written by this store decodes to a backend error, not a panic.
func decodeCell(cell string) ([]byte, error) {
	b, err := codec.Decode(cell)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return b, nil
}
