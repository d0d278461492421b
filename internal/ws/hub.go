package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event represents a WebSocket message to be broadcast. The ID lets
// clients deduplicate events delivered on both their own room and the
// staff room.
type Event struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event types published on order activity.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
)

// staffRoom is the reserved room id every staff connection joins, in
// addition to its own user room. User ids start at 1 so 0 is free.
const staffRoom int64 = 0

// userEvent is an internal struct for routing events to specific rooms
type userEvent struct {
	Room  int64
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by room id (user id, or staffRoom)
	rooms map[int64]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *userEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			for _, room := range client.rooms {
				if h.rooms[room] == nil {
					h.rooms[room] = make(map[*Client]bool)
				}
				h.rooms[room][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.dropClient(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Room]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					h.dropClient(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// dropClient removes the client from every room it joined. Callers hold
// the mutex.
func (h *Hub) dropClient(client *Client) {
	var present bool
	for _, room := range client.rooms {
		if clients, ok := h.rooms[room]; ok {
			if _, exists := clients[client]; exists {
				present = true
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.rooms, room)
				}
			}
		}
	}
	if present {
		close(client.send)
	}
}

// BroadcastToUser sends an event to all connections of one user
func (h *Hub) BroadcastToUser(userID int64, event Event) {
	h.broadcast <- &userEvent{Room: userID, Event: event}
}

// BroadcastToStaff sends an event to every connected staff client
func (h *Hub) BroadcastToStaff(event Event) {
	h.broadcast <- &userEvent{Room: staffRoom, Event: event}
}
