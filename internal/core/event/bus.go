package event

import (
	"reflect"
	"sync"
)

// Bus is a synchronous typed event bus. The engine runs single-threaded per
// agent, so events are delivered inline at Emit time; the mutex only guards
// handler registration from the harness setup path.
type Bus struct {
	mu       sync.Mutex
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]any)}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Emit delivers an event to all subscribed handlers, in registration order.
func Emit[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	handlers := b.handlers[t]
	b.mu.Unlock()
	for _, h := range handlers {
		// Safe: Subscribe and Emit key handlers by the same type.
		h.(func(T))(event)
	}
}
