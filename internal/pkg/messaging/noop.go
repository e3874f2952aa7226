package messaging

import (
	"context"
	"log/slog"
	"time"
)

// Noop drops every message. It is selected when no broker is configured.
type Noop struct{}

// NewNoop returns a Publisher that discards messages.
func NewNoop() *Noop {
	return &Noop{}
}

// Publish logs the destination at debug level and discards the message.
func (*Noop) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	slog.DebugContext(ctx, "messaging disabled, message dropped", "destination", destination, "bytes", len(msg.Body))

	return PublishResult{Subject: destination, Timestamp: time.Now()}, nil
}

// Close is a no-op.
func (*Noop) Close() error {
	return nil
}
