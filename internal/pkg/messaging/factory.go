package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by messaging.driver.
const (
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverNSQ          = "nsq"
	DriverGooglePubSub = "google-pubsub"
	DriverNoop         = "noop"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions holds the settings of every driver; only the selected one is read.
type FactoryOptions struct {
	NATS   NATSConfig
	Kafka  KafkaConfig
	NSQ    NSQConfig
	PubSub PubSubConfig
}

type builder func(ctx context.Context, opts FactoryOptions) (Publisher, error)

var builders = map[string]builder{
	DriverNATS: func(_ context.Context, opts FactoryOptions) (Publisher, error) {
		return asPublisher(NewNATS(opts.NATS))
	},
	DriverKafka: func(_ context.Context, opts FactoryOptions) (Publisher, error) {
		return asPublisher(NewKafka(opts.Kafka))
	},
	DriverNSQ: func(_ context.Context, opts FactoryOptions) (Publisher, error) {
		return asPublisher(NewNSQ(opts.NSQ))
	},
	DriverGooglePubSub: func(ctx context.Context, opts FactoryOptions) (Publisher, error) {
		return asPublisher(NewPubSub(ctx, opts.PubSub))
	},
	DriverNoop: func(context.Context, FactoryOptions) (Publisher, error) {
		return NewNoop(), nil
	},
}

// asPublisher keeps a failed constructor from yielding a non-nil interface
// around a nil pointer.
func asPublisher[P Publisher](p P, err error) (Publisher, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewFromDriver constructs a Publisher by driver name. An empty driver means noop.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Publisher, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if name == "" {
		name = DriverNoop
	}

	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	return build(ctx, opts)
}
