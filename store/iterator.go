package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/lattice/internal/partiql"
)

// Range describes the keys an Iterator visits. At most one lower bound
// (Gt exclusive, Gte inclusive) and at most one upper bound (Lt
// exclusive, Lte inclusive) may be set; a nil bound is unbounded on that
// side, and the zero Range scans the whole table. Reverse flips
// iteration to descending key order.
type Range struct {
	Gt  []byte
	Gte []byte
	Lt  []byte
	Lte []byte

	Reverse bool
}

// Iterator hands out the rows matched by one Range query in key order.
// It is not restartable; a new call to Store.Iterator issues a new
// query.
type Iterator struct {
	pairs  []pair
	pos    int
	closed bool
}

type pair struct {
	key   []byte
	value []byte
}

// Iterator runs a range query and returns an iterator over the decoded
// matches, ascending by key unless r.Reverse is set. The encoding
// preserves byte order, so the backend's ORDER BY on the stored cells is
// the logical key order.
//
// The full result set is fetched before the first Next; the lazy
// contract covers hand-off to the consumer, not retrieval. A very large
// range costs memory proportional to its row count.
func (s *Store) Iterator(ctx context.Context, r Range) (*Iterator, error) {
	if r.Gt != nil && r.Gte != nil {
		return nil, fmt.Errorf("%w: Gt and Gte", ErrInvalidRange)
	}
	if r.Lt != nil && r.Lte != nil {
		return nil, fmt.Errorf("%w: Lt and Lte", ErrInvalidRange)
	}

	ops := make([]string, 0, 2)
	args := make([]types.AttributeValue, 0, 3)
	args = append(args, str(partition))
	for _, bound := range []struct {
		op  string
		key []byte
	}{
		{partiql.OpGT, r.Gt},
		{partiql.OpGTE, r.Gte},
		{partiql.OpLT, r.Lt},
		{partiql.OpLTE, r.Lte},
	} {
		if bound.key == nil {
			continue
		}
		ek, err := s.encodeKey(bound.key)
		if err != nil {
			return nil, err
		}
		ops = append(ops, bound.op)
		args = append(args, str(ek))
	}

	stmt := partiql.SelectRange(s.cfg.TableName, ops, r.Reverse)

	var pairs []pair
	var next *string
	for {
		out, err := s.execute(ctx, stmt, args, next)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			var rw row
			if err := attributevalue.UnmarshalMap(item, &rw); err != nil {
				return nil, fmt.Errorf("%w: decode row: %v", ErrBackend, err)
			}
			k, err := decodeCell(rw.K)
			if err != nil {
				return nil, err
			}
			v, err := decodeCell(rw.V)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair{key: k, value: v})
		}
		if out.NextToken == nil {
			break
		}
		next = out.NextToken
	}

	return &Iterator{pairs: pairs, pos: -1}, nil
}

// Next advances to the next pair, returning false once the matches are
// exhausted or the iterator is closed.
func (it *Iterator) Next() bool {
	if it.closed || it.pos >= len(it.pairs) {
		return false
	}
	it.pos++
	return it.pos < len(it.pairs)
}

// Valid reports whether the iterator is positioned on a pair.
func (it *Iterator) Valid() bool {
	return !it.closed && it.pos >= 0 && it.pos < len(it.pairs)
}

// Key returns the key at the current position, or nil when invalid.
func (it *Iterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return it.pairs[it.pos].key
}

// Value returns the value at the current position, or nil when invalid.
func (it *Iterator) Value() []byte {
	if !it.Valid() {
		return nil
	}
	return it.pairs[it.pos].value
}

// Close releases the materialized result set.
func (it *Iterator) Close() error {
	it.closed = true
	it.pairs = nil
	return nil
}
