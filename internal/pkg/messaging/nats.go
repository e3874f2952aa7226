package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
)

var (
	// ErrNATSSubjectRequired is returned when the subject is empty.
	ErrNATSSubjectRequired = errors.New("messaging: nats subject is required")
	// ErrNATSURLRequired is returned when the NATS server URL is missing.
	ErrNATSURLRequired = errors.New("messaging: nats url is required")
)

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS publishes audit events on core NATS subjects. Delivery is
// fire-and-forget; a flush confirms the server received the message.
type NATS struct {
	conn   *nats.Conn
	closed atomic.Bool
}

// NewNATS connects to the NATS server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains pending messages before closing the connection.
func (n *NATS) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}

	err := n.conn.Drain()
	n.conn.Close()
	return err
}

func natsMsg(subject string, msg OutgoingMessage) *nats.Msg {
	m := nats.NewMsg(subject)
	m.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key != "" {
			m.Header.Add(h.Key, string(h.Value))
		}
	}
	return m
}

func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	switch {
	case ctx.Err() != nil:
		return PublishResult{}, ctx.Err()
	case destination == "":
		return PublishResult{}, ErrNATSSubjectRequired
	case msg.Delay > 0:
		return PublishResult{}, ErrUnsupported
	case n.closed.Load():
		return PublishResult{}, ErrClosed
	}

	err := n.conn.PublishMsg(natsMsg(destination, msg))
	if err == nil {
		err = n.conn.FlushWithContext(ctx)
	}
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrConnectionDraining) {
		return PublishResult{}, ErrClosed
	}
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats publish %q: %w", destination, err)
	}

	return PublishResult{Subject: destination, Timestamp: time.Now()}, nil
}
