package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ConnState is the store's latest view of the backend connection.
type ConnState int32

const (
	// StateDisconnected means the store is closed or the backing table
	// is unreachable.
	StateDisconnected ConnState = iota

	// StateConnecting means the backing table exists but is not yet
	// ready to serve statements.
	StateConnecting

	// StateConnected means statements can be submitted.
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// conn owns the lifecycle of the backing table: idempotent bootstrap on
// open, a background observer that tracks the table status, and the
// latest ConnState the executor polls. State transitions only feed
// diagnostics and the executor's wait; they carry no other control flow.
type conn struct {
	client API
	cfg    Config
	logger *slog.Logger

	state atomic.Int32

	mu     sync.Mutex
	opened bool
	stop   chan struct{}
	done   chan struct{}
}

func newConn(client API, cfg Config, logger *slog.Logger) *conn {
	return &conn{client: client, cfg: cfg, logger: logger}
}

// open bootstraps the backing table and starts the status observer.
// Opening an already-open conn is a no-op.
func (c *conn) open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		return nil
	}

	if err := c.bootstrap(ctx); err != nil {
		return err
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.observe(c.stop, c.done)
	c.opened = true
	return nil
}

// close stops the observer and drops to disconnected. Further operations
// fail with ErrNotInitialized until the store is opened again.
func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return
	}
	close(c.stop)
	<-c.done
	c.opened = false
	c.setState(StateDisconnected)
}

// bootstrap creates the backing table if it does not exist and records
// its current status. The sort key is natively indexed, so the single
// CreateTable covers both schema statements of the storage contract.
func (c *conn) bootstrap(ctx context.Context) error {
	_, err := c.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(c.cfg.TableName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("p"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("k"), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("p"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("k"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("%w: create table %s: %v", ErrInit, c.cfg.TableName, err)
		}
		// Table already exists; bootstrap is idempotent.
	}

	out, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.cfg.TableName),
	})
	if err != nil {
		return fmt.Errorf("%w: describe table %s: %v", ErrInit, c.cfg.TableName, err)
	}
	c.setState(stateFromStatus(out.Table.TableStatus))
	return nil
}

// observe refreshes the connection state until the conn is closed.
func (c *conn) observe(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.cfg.StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.refresh(context.Background())
		}
	}
}

func (c *conn) refresh(ctx context.Context) {
	out, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.cfg.TableName),
	})
	if err != nil {
		c.setState(StateDisconnected)
		return
	}
	c.setState(stateFromStatus(out.Table.TableStatus))
}

func (c *conn) setState(next ConnState) {
	prev := ConnState(c.state.Swap(int32(next)))
	if prev != next {
		c.logger.Debug("connection state changed",
			"table", c.cfg.TableName,
			"from", prev.String(),
			"to", next.String(),
		)
	}
}

func (c *conn) currentState() ConnState {
	return ConnState(c.state.Load())
}

func (c *conn) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

// waitConnected blocks until the backend reports a connected state,
// re-checking at the configured poll interval. It fails once the store
// is closed or ctx expires.
func (c *conn) waitConnected(ctx context.Context) error {
	for {
		if !c.isOpen() {
			return ErrNotInitialized
		}
		if c.currentState() == StateConnected {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

func stateFromStatus(status types.TableStatus) ConnState {
	switch status {
	case types.TableStatusActive:
		return StateConnected
	case types.TableStatusCreating, types.TableStatusUpdating:
		return StateConnecting
	default:
		return StateDisconnected
	}
}
