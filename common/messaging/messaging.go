// Package messaging abstracts the message bus used for lead fan-out so the
// notifier is not coupled to a specific broker implementation.
package messaging

import (
	"context"
	"time"
)

// Message is a message published to or received from the bus.
type Message struct {
	// Subject is the topic the message was published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Metadata contains optional key-value pairs for message headers.
	Metadata map[string]string

	// Timestamp is when the message was published.
	Timestamp time.Time
}

// Publisher publishes messages to subjects. Publishing is fire-and-forget;
// delivery failures are reported to the caller but never retried here.
type Publisher interface {
	// Publish sends raw bytes to the specified subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishMsg sends a Message with full control over headers.
	PublishMsg(ctx context.Context, msg *Message) error

	// Close releases any resources held by the publisher.
	Close() error
}

// MessageHandler processes a received message.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription represents an active subscription to a subject.
type Subscription interface {
	// Unsubscribe stops receiving messages on this subscription.
	Unsubscribe() error

	// Subject returns the subject this subscription listens to.
	Subject() string

	// IsValid returns true if the subscription is still active.
	IsValid() bool
}

// Subscriber subscribes to messages on subjects. Downstream notification
// workers consume lead subjects through queue subscriptions so each message
// is processed once per worker pool.
type Subscriber interface {
	// Subscribe creates a fan-out subscription to the subject.
	Subscribe(subject string, handler MessageHandler) (Subscription, error)

	// QueueSubscribe load-balances messages across subscribers sharing queue.
	QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error)

	// Close unsubscribes all active subscriptions.
	Close() error
}

// Client combines Publisher and Subscriber.
type Client interface {
	Publisher
	Subscriber

	// Drain gracefully closes, letting in-flight messages complete.
	Drain() error

	// IsConnected reports whether the client is connected to the broker.
	IsConnected() bool
}
