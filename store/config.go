package store

import "time"

// Config holds configuration for the Store.
type Config struct {
	// TableName is the name of the backing table.
	// Default: "lattice_kvstore"
	TableName string

	// KeySize is the maximum key length in bytes. Larger keys are
	// rejected with ErrKeyTooLarge. The stored cell is twice this many
	// characters (hex encoding).
	// Default: 256
	KeySize int

	// ValueSize is the maximum value length in bytes. Larger values are
	// rejected with ErrValueTooLarge.
	// Default: 1024
	ValueSize int

	// PollInterval is how often an operation re-checks the connection
	// state while waiting for the backend to become available.
	// Default: 100ms
	PollInterval time.Duration

	// StatusInterval is how often the connection manager refreshes the
	// backing table status from the backend.
	// Default: 1s
	StatusInterval time.Duration

	// MaxAttempts is the total number of times a statement is submitted
	// before the operation fails with ErrBackend. The store re-waits for
	// a connected backend before each attempt, so a brief connection
	// flap between attempts is absorbed rather than surfaced.
	// Default: 3
	MaxAttempts int
}

// DefaultConfig returns sensible defaults for small datasets.
//
// All rows share one partition so that range iteration can order by the
// key. That caps throughput at a single partition's limits (roughly
// 1,000 writes/sec and 3,000 reads/sec); this store targets workloads
// well below that.
func DefaultConfig() Config {
	return Config{
		TableName:      "lattice_kvstore",
		KeySize:        256,
		ValueSize:      1024,
		PollInterval:   100 * time.Millisecond,
		StatusInterval: time.Second,
		MaxAttempts:    3,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "lattice_kvstore"
	}
	if c.KeySize < 1 {
		c.KeySize = 256
	}
	if c.ValueSize < 1 {
		c.ValueSize = 1024
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = time.Second
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
}
