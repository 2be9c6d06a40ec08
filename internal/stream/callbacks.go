package stream

import "sync"

// Handler observes stream completion events. Both methods run on the
// goroutine that completed the event, never concurrently with themselves
// for one stream direction.
type Handler interface {
	OnMessageReceived(msg Message)
	OnMessageSent(messageID uint32)
}

// registry tolerates register/unregister while a dispatch over the
// current handler set is in progress: dispatchers snapshot first.
type registry struct {
	mu       sync.Mutex
	handlers map[Handler]struct{}
}

func newRegistry() *registry {
	return &registry{handlers: make(map[Handler]struct{})}
}

func (r *registry) add(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[h]; ok {
		return ErrHandlerRegistered
	}
	r.handlers[h] = struct{}{}
	return nil
}

func (r *registry) remove(h Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[h]; !ok {
		return false
	}
	delete(r.handlers, h)
	return true
}

func (r *registry) snapshot() []Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handler, 0, len(r.handlers))
	for h := range r.handlers {
		out = append(out, h)
	}
	return out
}
