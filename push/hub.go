// Package push holds the latest unsolicited message from the native messaging
// host and fans it out to registered listeners.
//
// A push message is any inbound frame that arrives while no request is waiting
// for a response. The hub retains only the most recent one — it is a "latest
// value" cell, not a queue. Listeners registered after a push was received do
// not see past values, only future ones.
package push

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/95rangerxlt/jabref/message"
)

// Listener receives every push message published after it was subscribed.
// Listeners run synchronously on the goroutine that read the inbound frame,
// so a slow listener delays the next read.
type Listener func(message.Message)

type subscriber struct {
	id string
	fn Listener
}

// Hub is the single owner of the "last push message" state.
// Publish is called only by the transport's read loop; Subscribe, Unsubscribe
// and Current may be called from any goroutine.
type Hub struct {
	mu          sync.Mutex
	current     message.Message
	hasCurrent  bool
	subscribers []subscriber
}

func NewHub() *Hub {
	return new(Hub)
}

// Current returns the last successfully decoded push message, or false if
// none has been observed yet.
func (h *Hub) Current() (message.Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.hasCurrent
}

// Subscribe registers fn to be invoked with every subsequent push message,
// in registration order. It returns a token that can be passed to Unsubscribe.
func (h *Hub) Subscribe(fn Listener) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.subscribers = append(h.subscribers, subscriber{id: id, fn: fn})
	h.mu.Unlock()
	return id
}

// Unsubscribe removes the listener registered under token. It reports whether
// a listener was removed.
func (h *Hub) Unsubscribe(token string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subscribers {
		if s.id == token {
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return true
		}
	}
	return false
}

// Publish replaces the current push message and notifies all listeners in
// registration order. A panicking listener is logged and skipped; it must not
// take down the transport's read loop or starve later listeners.
func (h *Hub) Publish(msg message.Message) {
	h.mu.Lock()
	h.current = msg
	h.hasCurrent = true
	// Snapshot under the lock so a listener may Subscribe/Unsubscribe
	// without deadlocking the notification pass.
	subs := make([]subscriber, len(h.subscribers))
	copy(subs, h.subscribers)
	h.mu.Unlock()

	for _, s := range subs {
		h.notify(s, msg)
	}
}

func (h *Hub) notify(s subscriber, msg message.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("push: listener %s panicked: %v", s.id, r)
		}
	}()
	s.fn(msg)
}
