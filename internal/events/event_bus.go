// Package events provides the in-process publish/subscribe channel that carries
// authentication outcomes from the CLI layer to the organization store.
package events

import (
	"fmt"
	"sync"
	"time"

	"orgctl/pkg/logging"
)

// Handler processes a published payload.
type Handler func(name string, payload Payload)

// Subscription represents a registered handler for one event name.
type Subscription struct {
	ID      string
	Name    string
	Handler Handler
	closed  bool
}

// Metrics tracks event bus usage.
type Metrics struct {
	ActiveSubscriptions int
	EventsPublished     int64
	EventsDelivered     int64
	HandlerPanics       int64
	LastEventTime       time.Time
	EventsByName        map[string]int64
}

// Bus provides publish/subscribe functionality for events.
type Bus interface {
	// Publish delivers payload synchronously to every handler subscribed to name,
	// in subscription order.
	Publish(name string, payload Payload)

	// Subscribe registers handler for name.
	Subscribe(name string, handler Handler) *Subscription

	// Unsubscribe removes a subscription. Unknown subscriptions are ignored.
	Unsubscribe(sub *Subscription)

	// Metrics returns a copy of the bus metrics.
	Metrics() Metrics
}

// DefaultBus is the default implementation of Bus.
type DefaultBus struct {
	mu            sync.RWMutex
	subscriptions map[string][]*Subscription
	metrics       Metrics
	subIDCounter  int64
}

// NewBus creates a new event bus.
func NewBus() *DefaultBus {
	return &DefaultBus{
		subscriptions: make(map[string][]*Subscription),
		metrics: Metrics{
			EventsByName: make(map[string]int64),
		},
	}
}

// Publish delivers payload to the handlers subscribed to name.
func (b *DefaultBus) Publish(name string, payload Payload) {
	// Copy subscribers so handlers may subscribe/unsubscribe without deadlocking.
	b.mu.RLock()
	subs := append([]*Subscription(nil), b.subscriptions[name]...)
	b.mu.RUnlock()

	delivered := 0
	panics := 0
	for _, sub := range subs {
		if b.deliver(sub, name, copyPayload(payload)) {
			delivered++
		} else {
			panics++
		}
	}

	b.mu.Lock()
	b.metrics.EventsPublished++
	b.metrics.EventsByName[name]++
	b.metrics.EventsDelivered += int64(delivered)
	b.metrics.HandlerPanics += int64(panics)
	b.metrics.LastEventTime = time.Now()
	b.mu.Unlock()

	logging.Debug("EventBus", "Published %s to %d subscriber(s)", name, delivered)
}

// deliver runs one handler; a panic is logged and reported as a failed delivery.
func (b *DefaultBus) deliver(sub *Subscription, name string, payload Payload) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("EventBus", fmt.Errorf("%v", r), "Handler %s panicked on %s", sub.ID, name)
			ok = false
		}
	}()
	sub.Handler(name, payload)
	return true
}

// Subscribe registers handler for events named name.
func (b *DefaultBus) Subscribe(name string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subIDCounter++
	sub := &Subscription{
		ID:      fmt.Sprintf("%s_sub_%d", name, b.subIDCounter),
		Name:    name,
		Handler: handler,
	}
	b.subscriptions[name] = append(b.subscriptions[name], sub)
	b.metrics.ActiveSubscriptions++
	return sub
}

// Unsubscribe removes a subscription.
func (b *DefaultBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.closed {
		return
	}
	subs := b.subscriptions[sub.Name]
	for i, s := range subs {
		if s == sub {
			b.subscriptions[sub.Name] = append(subs[:i:i], subs[i+1:]...)
			sub.closed = true
			b.metrics.ActiveSubscriptions--
			return
		}
	}
}

// Metrics returns event bus metrics.
func (b *DefaultBus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Return a copy to prevent external modification
	m := b.metrics
	m.EventsByName = make(map[string]int64, len(b.metrics.EventsByName))
	for k, v := range b.metrics.EventsByName {
		m.EventsByName[k] = v
	}
	return m
}

func copyPayload(p Payload) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
