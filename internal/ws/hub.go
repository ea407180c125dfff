package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/qr-billing/api/internal/checkout"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// businessEvent is an internal struct for routing events to one business room
type businessEvent struct {
	BusinessID int64
	Event      Event
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Rooms are keyed by business id; the staff dashboard of each business
// subscribes to its own room and watches checkout flows progress live.
type Hub struct {
	rooms map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *businessEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *businessEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.businessID] == nil {
				h.rooms[client.businessID] = make(map[*Client]bool)
			}
			h.rooms[client.businessID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.businessID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.businessID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.BusinessID]

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
					close(client.send)
					delete(h.rooms[event.BusinessID], client)
					if len(h.rooms[event.BusinessID]) == 0 {
						delete(h.rooms, event.BusinessID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToBusiness sends an event to all clients subscribed to a business
func (h *Hub) BroadcastToBusiness(businessID int64, event Event) {
	h.broadcast <- &businessEvent{
		BusinessID: businessID,
		Event:      event,
	}
}

// FlowObserver bridges checkout flow transitions onto the hub so dashboard
// clients see each checkout move through its states.
type FlowObserver struct {
	hub *Hub
}

func NewFlowObserver(hub *Hub) *FlowObserver {
	return &FlowObserver{hub: hub}
}

func (o *FlowObserver) FlowEvent(ev checkout.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ERROR: encode flow event: %v", err)
		return
	}
	o.hub.BroadcastToBusiness(ev.BusinessID, Event{
		Type:    "checkout." + ev.State,
		Payload: payload,
	})
}
