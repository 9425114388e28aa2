// Package realtime is the push side of the chat layer: an SSE hub with
// room-addressed fan-out, an optional cross-instance bus, and the join
// authorization rules for request rooms.
package realtime

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"repairmatch/internal/domain/user"
	"repairmatch/internal/pkg/metrics"

	"github.com/google/uuid"
)

type EventType string

const (
	EventHandshake EventType = "handshake"
	EventMessage   EventType = "message"
	EventRequest   EventType = "request_updated"
)

// Event is one push frame. Room addresses the fan-out target; the hub itself
// attaches no meaning to room names.
type Event struct {
	Room string    `json:"room"`
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

func RoomCustomer(id int64) string { return fmt.Sprintf("customer:%d", id) }
func RoomStore(id int64) string    { return fmt.Sprintf("store:%d", id) }
func RoomRequest(id int64) string  { return fmt.Sprintf("request:%d", id) }

type Client struct {
	ID        uuid.UUID
	Principal user.Principal
	Rooms     map[string]bool
	Outbound  chan Event
	done      chan struct{}
}

// Hub tracks live connections and their room subscriptions. All state is
// process-local; cross-instance delivery goes through the Bus.
type Hub struct {
	mu            sync.RWMutex
	clients       map[uuid.UUID]*Client
	subscriptions map[string]map[*Client]bool
	metrics       *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients:       make(map[uuid.UUID]*Client),
		subscriptions: make(map[string]map[*Client]bool),
		metrics:       m,
	}
}

// Connect registers a new client and auto-joins its personal room (and the
// store room for operators) so inbox pushes need no explicit join.
func (h *Hub) Connect(principal user.Principal) *Client {
	client := &Client{
		ID:        uuid.New(),
		Principal: principal,
		Rooms:     make(map[string]bool),
		Outbound:  make(chan Event, 16),
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	switch {
	case principal.IsCustomer():
		h.Join(client, RoomCustomer(principal.ID))
	case principal.IsStore():
		h.Join(client, RoomStore(principal.StoreID))
	}

	h.metrics.ConnectionOpened()
	return client
}

func (h *Hub) ClientByID(id uuid.UUID) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[id]
	return client, ok
}

func (h *Hub) Join(client *Client, room string) {
	room = strings.TrimSpace(room)
	if room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client.Rooms[room] = true
	members, ok := h.subscriptions[room]
	if !ok {
		members = make(map[*Client]bool)
		h.subscriptions[room] = members
	}
	members[client] = true

	slog.Debug("realtime client joined room", "client_id", client.ID, "room", room)
}

func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.Rooms, room)
	if members, ok := h.subscriptions[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.subscriptions, room)
		}
	}
}

// Broadcast delivers to every member of the event's room. Slow consumers with
// a full buffer lose the frame rather than stalling the hub.
func (h *Hub) Broadcast(ev Event) {
	if ev.Room == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.subscriptions[ev.Room] {
		select {
		case client.Outbound <- ev:
		default:
			slog.Warn("dropping realtime event, client buffer full", "client_id", client.ID, "room", ev.Room)
		}
	}
}

// Disconnect is idempotent: both Shutdown and the stream handler's defer can
// reach it for the same client, and only the first call tears down.
func (h *Hub) Disconnect(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	for room := range client.Rooms {
		if members, ok := h.subscriptions[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.subscriptions, room)
			}
		}
	}
	delete(h.clients, client.ID)
	h.mu.Unlock()

	close(client.done)
	h.metrics.ConnectionClosed()
}

// Shutdown disconnects every client; used on process stop.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	live := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		live = append(live, client)
	}
	h.mu.RUnlock()

	for _, client := range live {
		h.Disconnect(client)
	}
}

const heartbeatInterval = 15 * time.Second

// Serve streams the client's events until the connection or the client goes
// away. The first frame is the handshake carrying the connection id the
// client uses for join and send calls.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	writeEvent(w, Event{
		Type: EventHandshake,
		Data: map[string]string{"connection_id": client.ID.String()},
	})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-client.Outbound:
			writeEvent(w, ev)
			flusher.Flush()
		}
	}
}
