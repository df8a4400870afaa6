package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/lattice/internal/partiql"
)

// maxBatchStatements is the backend's per-request statement limit.
const maxBatchStatements = 25

type batchOp struct {
	key    string // encoded
	value  string // encoded, puts only
	remove bool
}

// Batch accumulates an ordered sequence of put and delete requests for a
// single Write call. The zero count batch is valid; writing it is a
// no-op.
type Batch struct {
	store *Store
	ops   []batchOp
}

// NewBatch creates an empty batch bound to the store's size limits.
func (s *Store) NewBatch() *Batch {
	return &Batch{store: s}
}

// Put records an upsert for key.
func (b *Batch) Put(key, value []byte) error {
	ek, err := b.store.encodeKey(key)
	if err != nil {
		return err
	}
	ev, err := b.store.encodeValue(value)
	if err != nil {
		return err
	}
	b.ops = append(b.ops, batchOp{key: ek, value: ev})
	return nil
}

// Delete records a removal for key.
func (b *Batch) Delete(key []byte) error {
	ek, err := b.store.encodeKey(key)
	if err != nil {
		return err
	}
	b.ops = append(b.ops, batchOp{key: ek, remove: true})
	return nil
}

// Len returns the number of recorded requests.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Write applies the batch. Requests collapse per key with the last write
// winning, then execute as at most two compound statements per page: one
// of deletes, one of inserts. The delete page also clears keys about to
// be inserted, which is what gives the inserts upsert semantics.
//
// Atomicity is per compound statement only. A failed Write leaves the
// backend's partial application in place; callers must not assume a
// rollback.
func (s *Store) Write(ctx context.Context, b *Batch) error {
	if len(b.ops) == 0 {
		return nil
	}

	final := make(map[string]batchOp, len(b.ops))
	order := make([]string, 0, len(b.ops))
	for _, op := range b.ops {
		if _, seen := final[op.key]; !seen {
			order = append(order, op.key)
		}
		final[op.key] = op
	}

	deletes := make([]types.BatchStatementRequest, 0, len(order))
	inserts := make([]types.BatchStatementRequest, 0, len(order))
	for _, key := range order {
		op := final[key]
		deletes = append(deletes, types.BatchStatementRequest{
			Statement:  aws.String(partiql.Delete(s.cfg.TableName)),
			Parameters: []types.AttributeValue{str(partition), str(op.key)},
		})
		if !op.remove {
			inserts = append(inserts, types.BatchStatementRequest{
				Statement:  aws.String(partiql.Insert(s.cfg.TableName)),
				Parameters: []types.AttributeValue{str(partition), str(op.key), str(op.value)},
			})
		}
	}

	// Deleting an absent key is expected on this page, not a failure.
	if err := s.writePages(ctx, deletes, true); err != nil {
		return err
	}
	return s.writePages(ctx, inserts, false)
}

func (s *Store) writePages(ctx context.Context, stmts []types.BatchStatementRequest, ignoreAbsent bool) error {
	for start := 0; start < len(stmts); start += maxBatchStatements {
		page := stmts[start:min(start+maxBatchStatements, len(stmts))]
		out, err := s.executeBatch(ctx, page)
		if err != nil {
			return err
		}
		for _, resp := range out.Responses {
			if resp.Error == nil {
				continue
			}
			if ignoreAbsent && resp.Error.Code == types.BatchStatementErrorCodeEnumConditionalCheckFailed {
				continue
			}
			return fmt.Errorf("%w: batch statement: %s: %s",
				ErrBackend, resp.Error.Code, aws.ToString(resp.Error.Message))
		}
	}
	return nil
}
