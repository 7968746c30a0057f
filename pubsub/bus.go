// Package pubsub provides the in-process publish/subscribe collaborator
// for event-sourced entities: synchronous fan-out to zero or more
// subscribers, with subscriber failures propagating to the caller of the
// triggering operation.
package pubsub

import (
	"sync"

	"github.com/domainkit/event-sourced-entities-go/entity"
)

// Subscriber handles one published event. Returning an error aborts the
// fan-out and propagates to the publisher's caller.
type Subscriber func(event entity.Event) error

// Bus is a synchronous in-process publish/subscribe mechanism. It
// implements entity.Publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewBus creates a Bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds a subscriber. Subscribers are invoked in subscription
// order.
func (b *Bus) Subscribe(subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers = append(b.subscribers, subscriber)
}

// Publish dispatches the event to every subscriber, synchronously. The
// first subscriber error stops the fan-out and is returned unchanged.
func (b *Bus) Publish(event entity.Event) error {
	b.mu.RLock()
	subscribers := make([]Subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, subscriber := range subscribers {
		if err := subscriber(event); err != nil {
			return err
		}
	}

	return nil
}

var _ entity.Publisher = (*Bus)(nil)
