// feed/hub.go
package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/sharednotes/domain"
)

const (
	EventNoteCreated = "note_created"

	queueSize      = 256
	subscriberSize = 32
)

type Event struct {
	Type string       `json:"type"`
	Note *domain.Note `json:"note,omitempty"`
}

// Hub fans events out to stream subscribers. Publishing never blocks: a
// full queue drops the event and a subscriber that falls behind is cut off.
type Hub struct {
	clients    map[chan Event]bool
	broadcast  chan Event
	register   chan chan Event
	unregister chan chan Event
	done       chan struct{}
	mu         sync.RWMutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[chan Event]bool),
		broadcast:  make(chan Event, queueSize),
		register:   make(chan chan Event),
		unregister: make(chan chan Event),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run delivers events until ctx ends, then closes every subscriber channel.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client <- ev:
				default:
					h.log.Warn().Msg("feed subscriber too slow, disconnecting")
					delete(h.clients, client)
					close(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Broadcast(eventType string, note *domain.Note) {
	select {
	case h.broadcast <- Event{Type: eventType, Note: note}:
	default:
		h.log.Warn().Str("type", eventType).Msg("feed queue full, dropping event")
	}
}

// Subscribe returns a channel of future events and the function that ends
// the subscription. The channel is closed when the subscription ends or
// the hub stops. Subscribing to a stopped hub yields a closed channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	client := make(chan Event, subscriberSize)
	select {
	case h.register <- client:
	case <-h.done:
		close(client)
		return client, func() {}
	}

	var once sync.Once
	return client, func() {
		once.Do(func() {
			select {
			case h.unregister <- client:
			case <-h.done:
			}
		})
	}
}

// Subscribers reports how many streams are attached.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
