package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrUnsupported is returned when a feature is not supported by the selected broker.
	ErrUnsupported = errors.New("messaging: unsupported operation")
	// ErrClosed is returned when publishing on a closed client.
	ErrClosed = errors.New("messaging: client is closed")
)

// Publisher publishes messages to a destination (subject/topic).
type Publisher interface {
	io.Closer

	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Key routes related messages together where the broker supports it
	// (Kafka partition key, Pub/Sub ordering key).
	Key []byte

	// Body is the message payload.
	Body []byte

	// Headers support arbitrary binary values and duplicate keys.
	Headers []Header

	// Delay is used for deferred delivery (when supported).
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult reports where a message went and when the broker accepted it.
type PublishResult struct {
	Subject   string
	Timestamp time.Time
}
