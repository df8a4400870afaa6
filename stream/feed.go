// Package stream decodes backing-table stream records into key-value
// change events.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/lattice/internal/codec"
)

// Kind labels a change event.
type Kind int

const (
	// Put reports a key that was inserted or updated.
	Put Kind = iota

	// Delete reports a key that was removed.
	Delete
)

func (k Kind) String() string {
	if k == Delete {
		return "delete"
	}
	return "put"
}

// Event is one decoded change to the backing table, in the store's
// logical byte representation.
type Event struct {
	Kind Kind
	Key  []byte

	// Value is the new value for Put events, nil for Delete.
	Value []byte
}

// Sink consumes decoded change events in record order.
type Sink func(ctx context.Context, e Event) error

// Handler feeds backing-table stream records to a sink.
type Handler struct {
	sink   Sink
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(sink Sink, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sink:   sink,
		logger: logger,
	}
}

// HandleChanges decodes each record and hands it to the sink. Records
// without the backing-table shape are skipped. This function is designed
// to be used as an AWS Lambda handler on the table's stream.
func (h *Handler) HandleChanges(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		e, ok, err := decodeRecord(record)
		if err != nil {
			h.logger.Error("failed to decode record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
		if !ok {
			continue
		}
		if err := h.sink(ctx, e); err != nil {
			h.logger.Error("sink rejected event",
				"eventID", record.EventID,
				"kind", e.Kind.String(),
				"error", err,
			)
			return err
		}
	}
	return nil
}

// decodeRecord converts one stream record into an Event. A record that
// does not carry a string key cell is not ours and is skipped without
// error; a key or value cell that fails to decode is corrupt and is not.
func decodeRecord(record events.DynamoDBEventRecord) (Event, bool, error) {
	cell, ok := stringAttr(record.Change.Keys, "k")
	if !ok {
		return Event{}, false, nil
	}
	key, err := codec.Decode(cell)
	if err != nil {
		return Event{}, false, fmt.Errorf("key: %w", err)
	}

	switch record.EventName {
	case "INSERT", "MODIFY":
		vcell, ok := stringAttr(record.Change.NewImage, "v")
		if !ok {
			return Event{}, false, nil
		}
		value, err := codec.Decode(vcell)
		if err != nil {
			return Event{}, false, fmt.Errorf("value: %w", err)
		}
		return Event{Kind: Put, Key: key, Value: value}, true, nil
	case "REMOVE":
		return Event{Kind: Delete, Key: key}, true, nil
	}
	return Event{}, false, nil
}

// stringAttr extracts a string attribute from a DynamoDB stream image.
func stringAttr(image map[string]events.DynamoDBAttributeValue, key string) (string, bool) {
	v, ok := image[key]
	if !ok || v.DataType() != events.DataTypeString {
		return "", false
	}
	return v.String(), true
}
