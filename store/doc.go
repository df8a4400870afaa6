// Package store adapts a distributed, SQL-queryable cache (DynamoDB via
// PartiQL) to an ordered, byte-oriented key-value contract.
//
// Lattice is designed for embedded-storage-engine client code that
// expects a synchronous, always-available ordered store, while the
// backend is remote, asynchronously available, and speaks parameterized
// statements. The adapter supplies the machinery in between: connection
// state tracking, bounded retry on transient failure, idempotent schema
// bootstrap, an order-preserving key/value encoding, and translation of
// range bounds and direction into statement clauses.
//
// # Key Features
//
//   - Get / Put / Delete with upsert semantics on Put
//   - Batched writes collapsed to at most two compound statements
//   - Range iteration with inclusive/exclusive bounds, forward or reverse
//   - Transparent wait-for-connected with a bounded retry on failure
//   - Idempotent table bootstrap on Open
//
// # Usage
//
//	cfg := store.DefaultConfig()
//	s := store.New(dynamodb.NewFromConfig(awsCfg), cfg)
//	if err := s.Open(ctx); err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.Put(ctx, []byte("a"), []byte("1")); err != nil {
//	    return err
//	}
//	it, err := s.Iterator(ctx, store.Range{Gte: []byte("a"), Lt: []byte("c")})
//	if err != nil {
//	    return err
//	}
//	defer it.Close()
//	for it.Next() {
//	    use(it.Key(), it.Value())
//	}
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotInitialized] - operation before Open or after Close
//   - [ErrInit] - schema bootstrap or table acquisition failed
//   - [ErrNotFound] - Get matched no row
//   - [ErrKeyTooLarge], [ErrValueTooLarge] - configured size limit exceeded
//   - [ErrBackend] - statement failed after the retry bound
//   - [ErrInvalidRange] - conflicting bounds on a Range
//
// # Consistency
//
// Operations issued sequentially on one handle observe the effects of
// prior completed operations. Across concurrent callers the key
// constraint and per-statement isolation of the backend are the only
// guarantees; a batch is atomic per compound statement, not as a whole.
package store
