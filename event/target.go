package event

import (
	"sync"
	"time"
)

// Target maps event names to ordered lists of listeners.
//
// The zero value is ready to use. A Target is intended to be embedded by
// composition in the objects that dispatch events.
type Target struct {
	mutex     sync.RWMutex
	listeners map[string][]registration
	nextID    int
}

type registration struct {
	id int
	fn Listener
}

// AddListener registers fn to be called whenever an event called name is
// dispatched. Listeners are invoked in registration order.
//
// It returns an id that can be passed to RemoveListener.
func (t *Target) AddListener(name string, fn Listener) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.listeners == nil {
		t.listeners = map[string][]registration{}
	}

	t.nextID++
	t.listeners[name] = append(t.listeners[name], registration{t.nextID, fn})

	return t.nextID
}

// RemoveListener unregisters the listener with the given id. It returns false
// if no such listener is registered for name.
func (t *Target) RemoveListener(name string, id int) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	regs := t.listeners[name]
	for i, r := range regs {
		if r.id == id {
			t.listeners[name] = append(regs[:i:i], regs[i+1:]...)
			return true
		}
	}

	return false
}

// Dispatch invokes each listener registered for name with an Event carrying
// detail.
//
// The listener list is copied before any listener runs, so listeners may add
// or remove listeners without affecting the current dispatch.
func (t *Target) Dispatch(name string, detail interface{}) {
	t.mutex.RLock()
	regs := append([]registration(nil), t.listeners[name]...)
	t.mutex.RUnlock()

	if len(regs) == 0 {
		return
	}

	ev := Event{
		Type:      name,
		TimeStamp: time.Now(),
		Detail:    detail,
	}

	for _, r := range regs {
		r.fn(ev)
	}
}

// Clear removes all listeners for all events.
func (t *Target) Clear() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.listeners = nil
}

// ListenerCount returns the number of listeners registered for name.
func (t *Target) ListenerCount(name string) int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return len(t.listeners[name])
}
