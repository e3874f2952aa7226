// Package messaging publishes login audit events to a broker.
//
// Business code depends on the Publisher interface. The broker is chosen at
// startup by driver name (nats, kafka, nsq, google-pubsub), and the noop
// driver disables publishing entirely.
package messaging
