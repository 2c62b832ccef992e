// Package notifier fans file change events out to subscribers.
package notifier

import "sync"

// Event reports that a watched SQL file changed.
type Event struct {
	Path string `json:"path"`
}

// Notifier broadcasts events to every subscribed listener.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives events.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 8)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Broadcast sends ev to all listeners. A listener whose buffer is full
// misses the event.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}
