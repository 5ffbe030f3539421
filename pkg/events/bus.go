package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

const busLogPrefix = "events:bus"

// Handler receives events from a Bus.
type Handler func(ctx context.Context, event *Event)

// Subscription identifies a registered handler.
type Subscription struct {
	id  uint64
	bus *Bus
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.Unsubscribe(s)
	}
}

type subscriber struct {
	id      uint64
	kinds   map[Kind]struct{}
	handler Handler
}

func (s *subscriber) wants(kind Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	_, ok := s.kinds[kind]
	return ok
}

// Bus is the in-process notification hub. Publish delivers synchronously, in
// subscription order, on the publishing goroutine. A Forward publisher, when set,
// receives every event after local handlers (e.g. the NATS bridge).
type Bus struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    []*subscriber
	forward EventPublisher
}

// NewBus creates an empty Bus. forward may be nil.
func NewBus(forward EventPublisher) *Bus {
	return &Bus{forward: forward}
}

// Subscribe registers handler for the given kinds, or for every kind when none are given.
func (b *Bus) Subscribe(handler Handler, kinds ...Kind) Subscription {
	sub := &subscriber{handler: handler}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return Subscription{id: sub.id, bus: b}
}

// Unsubscribe removes the subscription's handler.
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == s.id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers event to matching handlers, then to the forward publisher. Only a
// forward failure is returned; a panicking handler is logged and skipped.
func (b *Bus) Publish(ctx context.Context, event *Event) error {
	if event == nil {
		return nil
	}

	b.mu.RLock()
	subs := make([]*subscriber, len(b.subs))
	copy(subs, b.subs)
	forward := b.forward
	b.mu.RUnlock()

	slog.Debug(fmt.Sprintf("%s - Publishing %s to %d subscribers", busLogPrefix, event.Kind, len(subs)))

	for _, sub := range subs {
		if sub.wants(event.Kind) {
			b.deliver(ctx, sub, event)
		}
	}

	if forward != nil {
		if err := forward.Publish(ctx, event); err != nil {
			return fmt.Errorf("%s - forward %s: %w", busLogPrefix, event.Kind, err)
		}
	}
	return nil
}

func (b *Bus) deliver(ctx context.Context, sub *subscriber, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - handler %d panicked on %s: %v", busLogPrefix, sub.id, event.Kind, r))
		}
	}()
	sub.handler(ctx, event)
}

var _ EventPublisher = (*Bus)(nil)
