package websocket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"kawanchat/server/internal/notify"

	"go.uber.org/zap"
)

// Observer is told when a user's first session opens and last session closes
type Observer interface {
	Connected(contact string)
	Disconnected(contact string)
}

// Hub maintains the set of active clients and pushes messages to them
type Hub struct {
	// Sessions per user, keyed by connection ID
	clients map[int64]map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	observer Observer
	log      *zap.Logger

	// closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

var _ notify.Pusher = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(observer Observer, log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		observer:   observer,
		log:        log,
		done:       make(chan struct{}),
	}
}

// SetObserver sets the observer. It must be called before Run.
func (h *Hub) SetObserver(observer Observer) {
	h.observer = observer
}

// Run serializes registrations until ctx is done, then closes every client.
// Observer callbacks run on this loop, so a user's connect and disconnect are
// always seen in order.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			h.closeAll()
			return nil
		}
	}
}

// Join hands client to the run loop. It reports false once the hub has
// stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave hands client to the run loop for removal
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	sessions, ok := h.clients[client.User.ID]
	if !ok {
		sessions = make(map[string]*Client)
		h.clients[client.User.ID] = sessions
	}
	sessions[client.ID] = client
	first := len(sessions) == 1
	h.mu.Unlock()

	h.log.Info("client connected",
		zap.Int64("user_id", client.User.ID),
		zap.String("conn_id", client.ID),
		zap.Bool("first_session", first),
	)

	if first && h.observer != nil {
		h.observer.Connected(client.User.Email)
	}
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	sessions, ok := h.clients[client.User.ID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := sessions[client.ID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(sessions, client.ID)
	close(client.Send)
	last := len(sessions) == 0
	if last {
		delete(h.clients, client.User.ID)
	}
	h.mu.Unlock()

	h.log.Info("client disconnected",
		zap.Int64("user_id", client.User.ID),
		zap.String("conn_id", client.ID),
		zap.Bool("last_session", last),
	)

	if last && h.observer != nil {
		h.observer.Disconnected(client.User.Email)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, sessions := range h.clients {
		for _, client := range sessions {
			close(client.Send)
		}
		delete(h.clients, userID)
	}
}

// Push delivers a notification to every session of userID. A user with no
// session is not an error.
func (h *Hub) Push(_ context.Context, userID int64, dest notify.Destination, payload any) error {
	return h.SendToUser(userID, WSMessage{
		Type:        EventNotification,
		Destination: dest,
		Payload:     payload,
		Timestamp:   time.Now(),
	})
}

// SendToUser sends a message to every session of a specific user
func (h *Hub) SendToUser(userID int64, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			h.log.Warn("client send buffer full, dropping message",
				zap.Int64("user_id", userID),
				zap.String("conn_id", client.ID),
			)
		}
	}
	return nil
}

// sendToClient delivers to one session if it is still registered
func (h *Hub) sendToClient(client *Client, message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal message", zap.String("conn_id", client.ID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.clients[client.User.ID][client.ID] != client {
		return
	}
	select {
	case client.Send <- data:
	default:
		h.log.Warn("client send buffer full, dropping reply", zap.String("conn_id", client.ID))
	}
}

// IsUserOnline checks if a user has at least one session
func (h *Hub) IsUserOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.clients[userID]
	return ok
}

// OnlineUserIDs returns the connected user IDs in ascending order
func (h *Hub) OnlineUserIDs() []int64 {
	h.mu.RLock()
	userIDs := make([]int64, 0, len(h.clients))
	for userID := range h.clients {
		userIDs = append(userIDs, userID)
	}
	h.mu.RUnlock()

	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	return userIDs
}

// Stats returns the number of connected users and open sessions
func (h *Hub) Stats() (users, sessions int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.clients {
		sessions += len(s)
	}
	return len(h.clients), sessions
}
