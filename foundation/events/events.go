// Package events fans node events out to the websocket clients that
// registered to receive them.
package events

import (
	"fmt"
	"sync"
)

// messageBuffer is the number of events a receiver can fall behind before
// new events are dropped for it. A websocket write can take a while.
const messageBuffer = 100

// Events maintains the channels of the registered receivers keyed by a
// unique id.
type Events struct {
	mu sync.RWMutex
	m  map[string]chan string
}

// New constructs an events value with no receivers.
func New() *Events {
	return &Events{
		m: make(map[string]chan string),
	}
}

// Acquire registers the id and returns the channel events are delivered
// on. Acquiring an id twice returns the same channel.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.m[id]; exists {
		return ch
	}

	ch := make(chan string, messageBuffer)
	evt.m[id] = ch

	return ch
}

// Release closes and removes the channel registered for the id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)

	return nil
}

// Count returns the number of registered receivers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send delivers the event to every receiver. A receiver with a full
// buffer misses the event, Send never blocks.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- s:
		default:
		}
	}
}

// Shutdown closes and removes every registered channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}
