package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/lattice/internal/partiql"
)

// Store adapts the backing table to an ordered, byte-oriented key-value
// contract: Get, Put, Delete, batched writes, and range iteration.
type Store struct {
	client API
	cfg    Config
	conn   *conn
}

// row is the two-column shape of the backing table.
type row struct {
	K string `dynamodbav:"k"`
	V string `dynamodbav:"v"`
}

// New creates a new Store handle. The handle must be opened before use.
func New(client API, cfg Config) *Store {
	return NewWithLogger(client, cfg, nil)
}

// NewWithLogger creates a new Store handle with a diagnostics logger.
// A nil logger falls back to slog.Default().
func NewWithLogger(client API, cfg Config, logger *slog.Logger) *Store {
	cfg.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		cfg:    cfg,
		conn:   newConn(client, cfg, logger),
	}
}

// Open bootstraps the backing table and starts tracking the backend
// connection. Opening an already-open store is a no-op. It returns
// ErrInit when the table cannot be created or acquired.
func (s *Store) Open(ctx context.Context) error {
	return s.conn.open(ctx)
}

// Close releases the connection tracking. Operations after Close fail
// with ErrNotInitialized. Close must not run concurrently with in-flight
// operations. A closed store may be opened again.
func (s *Store) Close() error {
	s.conn.close()
	return nil
}

// State returns the latest observed connection state.
func (s *Store) State() ConnState {
	return s.conn.currentState()
}

// Get returns the value stored for key, or ErrNotFound when no row
// matches. The key constraint guarantees at most one match.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	ek, err := s.encodeKey(key)
	if err != nil {
		return nil, err
	}

	out, err := s.execute(ctx, partiql.Get(s.cfg.TableName),
		[]types.AttributeValue{str(partition), str(ek)}, nil)
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, ErrNotFound
	}

	var r row
	if err := attributevalue.UnmarshalMap(out.Items[0], &r); err != nil {
		return nil, fmt.Errorf("%w: decode row: %v", ErrBackend, err)
	}
	return decodeCell(r.V)
}

// Put upserts: the value replaces any existing row for the key, and a
// new row is inserted otherwise.
//
// PartiQL has no single upsert statement, so Put inserts first and falls
// back to an update on a duplicate key. The key constraint arbitrates
// concurrent writers; a writer whose update races a concurrent delete
// restarts the pair rather than surfacing the constraint error.
func (s *Store) Put(ctx context.Context, key, value []byte) error {
	ek, err := s.encodeKey(key)
	if err != nil {
		return err
	}
	ev, err := s.encodeValue(value)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		_, err := s.execute(ctx, partiql.Insert(s.cfg.TableName),
			[]types.AttributeValue{str(partition), str(ek), str(ev)}, nil)
		var dup *types.DuplicateItemException
		if !errors.As(err, &dup) {
			return err
		}

		_, err = s.execute(ctx, partiql.Update(s.cfg.TableName),
			[]types.AttributeValue{str(ev), str(partition), str(ek)}, nil)
		var gone *types.ConditionalCheckFailedException
		if !errors.As(err, &gone) {
			return err
		}
		// The row vanished between the insert and the update; go around.
		lastErr = err
	}
	return fmt.Errorf("%w: upsert kept racing concurrent writers: %v", ErrBackend, lastErr)
}

// Delete removes the row for key. Deleting an absent key is not an
// error.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	ek, err := s.encodeKey(key)
	if err != nil {
		return err
	}

	_, err = s.execute(ctx, partiql.Delete(s.cfg.TableName),
		[]types.AttributeValue{str(partition), str(ek)}, nil)
	var absent *types.ConditionalCheckFailedException
	if errors.As(err, &absent) {
		return nil
	}
	return err
}
