package session

import (
	"sync"

	"go-dashboard/internal/features/events"

	"go.uber.org/zap"
)

// bus fans events out to listeners and channel subscribers in emission
// order. Listeners run synchronously; a subscriber whose buffer is full loses
// the event.
type bus struct {
	logger *zap.Logger

	mu          sync.RWMutex
	nextID      int
	listeners   map[int]func(events.Event)
	subscribers map[int]chan events.Event
	closed      bool
}

func newBus(logger *zap.Logger) *bus {
	return &bus{
		logger:      logger,
		listeners:   make(map[int]func(events.Event)),
		subscribers: make(map[int]chan events.Event),
	}
}

func (b *bus) listen(fn func(events.Event)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

func (b *bus) subscribe(buffer int) (<-chan events.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan events.Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
}

func (b *bus) publish(evt events.Event) {
	b.mu.RLock()
	listeners := make([]func(events.Event), 0, len(b.listeners))
	for id := 0; id < b.nextID; id++ {
		if fn, ok := b.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		b.safeCall(fn, evt)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			b.logger.Warn("Dropped event for slow subscriber", zap.Int("subscriber", id), zap.String("event", evt.Type))
		}
	}
}

func (b *bus) safeCall(fn func(events.Event), evt events.Event) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("Event listener panicked", zap.String("event", evt.Type), zap.Any("panic", p))
		}
	}()
	fn(evt)
}

// close ends every subscription. Later subscriptions are closed immediately.
func (b *bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
	b.listeners = map[int]func(events.Event){}
}
