// Package invalidate tells readers which views went stale after a write
// confirmed. Nothing is cached here; a key only signals "read this again".
package invalidate

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscriber channel size.
const DefaultBuffer = 64

// Event is one invalidated key.
type Event struct {
	Key string    `json:"key"`
	At  time.Time `json:"at"`
}

// Forwarder receives every published event, e.g. to fan out to other processes.
type Forwarder interface {
	Forward(ctx context.Context, ev Event) error
}

type subscriber struct {
	prefix string
	exact  bool
	ch     chan Event
}

func (s *subscriber) matches(key string) bool {
	if s.exact {
		return key == s.prefix
	}
	return strings.HasPrefix(key, s.prefix)
}

// Bus fans invalidations out to local subscribers. Publishers never block on
// slow subscribers: a full subscriber loses its oldest event.
type Bus struct {
	mu        sync.RWMutex
	subs      map[uint64]*subscriber
	next      uint64
	buffer    int
	forwarder Forwarder
	logger    *zap.Logger
	now       func() time.Time
}

// NewBus creates a bus. forwarder may be nil.
func NewBus(forwarder Forwarder, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:      make(map[uint64]*subscriber),
		buffer:    DefaultBuffer,
		forwarder: forwarder,
		logger:    logger,
		now:       time.Now,
	}
}

// Subscribe receives every key starting with prefix. An empty prefix
// receives everything. Call cancel to release the subscription.
func (b *Bus) Subscribe(prefix string) (<-chan Event, func()) {
	return b.subscribe(prefix, false)
}

func (b *Bus) subscribe(key string, exact bool) (<-chan Event, func()) {
	sub := &subscriber{prefix: key, exact: exact, ch: make(chan Event, b.buffer)}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Publish delivers keys to matching subscribers, then to the forwarder.
// A forwarder failure is logged and returned; local delivery has happened.
func (b *Bus) Publish(ctx context.Context, keys ...string) error {
	at := b.now().UTC()
	events := make([]Event, 0, len(keys))
	for _, key := range keys {
		events = append(events, Event{Key: key, At: at})
	}

	b.mu.RLock()
	for _, ev := range events {
		for _, sub := range b.subs {
			if sub.matches(ev.Key) {
				b.deliver(sub, ev)
			}
		}
	}
	b.mu.RUnlock()

	if b.forwarder == nil {
		return nil
	}
	var firstErr error
	for _, ev := range events {
		if err := b.forwarder.Forward(ctx, ev); err != nil {
			b.logger.Warn("forward invalidation failed", zap.String("key", ev.Key), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (b *Bus) deliver(sub *subscriber, ev Event) {
	for {
		select {
		case sub.ch <- ev:
			return
		default:
		}
		select {
		case dropped := <-sub.ch:
			b.logger.Warn("invalidation dropped for slow subscriber",
				zap.String("prefix", sub.prefix),
				zap.String("key", dropped.Key),
			)
		default:
		}
	}
}

// Expectation waits for one exact key. Create it before the write that will
// publish the key so the publication cannot be missed.
type Expectation struct {
	key    string
	ch     <-chan Event
	cancel func()
}

// Expect starts listening for key.
func (b *Bus) Expect(key string) *Expectation {
	ch, cancel := b.subscribe(key, true)
	return &Expectation{key: key, ch: ch, cancel: cancel}
}

// Wait blocks until the key is published or ctx is done.
func (e *Expectation) Wait(ctx context.Context) error {
	select {
	case <-e.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the subscription.
func (e *Expectation) Close() {
	e.cancel()
}

// WaitFor blocks until key is published after the call, or ctx is done.
func (b *Bus) WaitFor(ctx context.Context, key string) error {
	exp := b.Expect(key)
	defer exp.Close()
	return exp.Wait(ctx)
}
