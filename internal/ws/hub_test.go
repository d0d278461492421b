package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, rooms ...int64) *Client {
	return &Client{
		hub:   hub,
		rooms: rooms,
		send:  make(chan []byte, 256),
	}
}

func testEvent(eventType, payload string) Event {
	return Event{
		ID:      uuid.New(),
		Type:    eventType,
		Payload: json.RawMessage(payload),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 42)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[42] == nil {
		t.Fatal("user room not created")
	}
	if !hub.rooms[42][client] {
		t.Fatal("client not registered in user room")
	}
}

func TestHubStaffJoinsBothRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 7, staffRoom)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if !hub.rooms[7][client] {
		t.Fatal("staff client not in own user room")
	}
	if !hub.rooms[staffRoom][client] {
		t.Fatal("staff client not in staff room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 42, staffRoom)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Rooms should be cleaned up when empty
	if hub.rooms[42] != nil {
		t.Fatal("user room not cleaned up after last client unregistered")
	}
	if hub.rooms[staffRoom] != nil {
		t.Fatal("staff room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, 10)
	client2 := mockClient(hub, 11)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	event := testEvent(EventOrderCreated, `{"order_id":77}`)
	hub.BroadcastToUser(10, event)

	// Check client1 receives the message
	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != EventOrderCreated {
			t.Errorf("expected type %q, got %q", EventOrderCreated, received.Type)
		}
		if string(received.Payload) != `{"order_id":77}` {
			t.Errorf("unexpected payload: %s", received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	// Check client2 does NOT receive the message
	select {
	case <-client2.send:
		t.Fatal("client2 should not have received another user's message")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToStaff(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	staff1 := mockClient(hub, 1, staffRoom)
	staff2 := mockClient(hub, 2, staffRoom)
	customer := mockClient(hub, 10)

	hub.register <- staff1
	hub.register <- staff2
	hub.register <- customer
	time.Sleep(10 * time.Millisecond)

	event := testEvent(EventOrderUpdated, `{"order_id":77,"status":1}`)
	hub.BroadcastToStaff(event)

	for i, client := range []*Client{staff1, staff2} {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("staff%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != EventOrderUpdated {
				t.Errorf("staff%d: expected type %q, got %q", i+1, EventOrderUpdated, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("staff%d did not receive message", i+1)
		}
	}

	select {
	case <-customer.send:
		t.Fatal("customer should not receive staff broadcasts")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}

func TestBroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 10)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Broadcast to a user with no connections
	hub.BroadcastToUser(999, testEvent(EventOrderCreated, `{"order_id":1}`))

	select {
	case <-client.send:
		t.Fatal("client should not receive another user's message")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}

func TestHubCleanupPartialRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, 10)
	client2 := mockClient(hub, 10)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[10]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[10]))
	}
	hub.mu.RUnlock()

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if len(hub.rooms[10]) != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", len(hub.rooms[10]))
	}
	if !hub.rooms[10][client2] {
		t.Fatal("remaining client should stay registered")
	}
}
