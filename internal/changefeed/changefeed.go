// Package changefeed fans row-level change events out to subscribers.
package changefeed

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/aidbridge-api/internal/domain"
)

// BufferSize is the per-subscriber queue length. A subscriber whose queue
// is full misses events rather than stalling publishers.
const BufferSize = 64

// Subscription selects the events a subscriber receives. An empty Column
// means every event of Table.
type Subscription struct {
	Table  string
	Column string
	Value  string
}

type Publisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

type Subscriber interface {
	// Subscribe returns a stream of matching events and a cancel func. The
	// stream is closed after cancel is called or ctx is done.
	Subscribe(ctx context.Context, sub Subscription) (<-chan domain.ChangeEvent, func())
}

type Broker interface {
	Publisher
	Subscriber
}

type subscriber struct {
	filter Subscription
	ch     chan domain.ChangeEvent
}

// Hub is an in-process Broker.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	nextID  uint64
	dropped atomic.Uint64
	onDrop  func(table string)
}

type HubOption func(*Hub)

// WithDropHook registers fn to be called for every event dropped on a full
// subscriber queue.
func WithDropHook(fn func(table string)) HubOption {
	return func(h *Hub) { h.onDrop = fn }
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{subs: make(map[uint64]*subscriber)}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Publish delivers ev to every matching subscriber without blocking.
func (h *Hub) Publish(_ context.Context, ev domain.ChangeEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if !ev.Matches(s.filter.Table, s.filter.Column, s.filter.Value) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			h.dropped.Add(1)
			if h.onDrop != nil {
				h.onDrop(ev.Table)
			}
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, sub Subscription) (<-chan domain.ChangeEvent, func()) {
	s := &subscriber{filter: sub, ch: make(chan domain.ChangeEvent, BufferSize)}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = s
	h.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			close(s.ch)
			h.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return s.ch, cancel
}

// Dropped is the number of events lost to full subscriber queues.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Len is the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
