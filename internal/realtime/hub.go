package realtime

import (
	"sync"

	"habit-rooms-go/pkg/logger"
)

const defaultBufferSize = 16

// Hub fans change events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event, which is safe because it
// already has an unread event telling it to re-fetch.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	hooks  []hook
	nextID uint64
	buffer int
	closed bool
	log    logger.Logger
}

func NewHub(buffer int, log logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBufferSize
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		log:    log,
	}
}

type hook struct {
	tables map[Table]struct{}
	fn     func(Event)
}

// Subscription receives events for its tables until Close is called.
type Subscription struct {
	id     uint64
	hub    *Hub
	tables map[Table]struct{}
	ch     chan Event
	once   sync.Once
}

func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
	})
}

func (s *Subscription) wants(table Table) bool {
	return matches(s.tables, table)
}

func matches(filter map[Table]struct{}, table Table) bool {
	if len(filter) == 0 {
		return true
	}
	_, ok := filter[table]
	return ok
}

func tableSet(tables []Table) map[Table]struct{} {
	filter := make(map[Table]struct{}, len(tables))
	for _, table := range tables {
		filter[table] = struct{}{}
	}
	return filter
}

// OnChange registers fn to run inside Publish, before Publish returns, for
// events on tables. A write that publishes its event has therefore already
// run every hook when it returns to the caller. fn must not block or publish.
func (h *Hub) OnChange(fn func(Event), tables ...Table) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{tables: tableSet(tables), fn: fn})
}

// Subscribe registers interest in tables; no tables means every table.
func (h *Hub) Subscribe(tables ...Table) *Subscription {
	filter := tableSet(tables)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		hub:    h,
		tables: filter,
		ch:     make(chan Event, h.buffer),
	}
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, hook := range h.hooks {
		if matches(hook.tables, event.Table) {
			hook.fn(event)
		}
	}
	for _, sub := range h.subs {
		if !sub.wants(event.Table) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.log.Debug("realtime.hub: subscriber buffer full, event dropped", "table", event.Table, "subscription", sub.id)
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription; later subscriptions start closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.ch)
}
