package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"devmatch/internal/domain/match"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the payload pushed to a participant when one of their matches changes.
type Event struct {
	Type      string    `json:"type"`
	MatchID   uuid.UUID `json:"matchId"`
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
}

type delivery struct {
	userID  uuid.UUID
	payload []byte
}

// Hub fans events out to the websocket connections of one user at a time.
// A user may hold several connections.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	deliveries chan delivery
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     *zap.Logger
	now        func() time.Time
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		deliveries: make(chan delivery, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		logger:     logger.Named("ws"),
		now:        time.Now,
	}
}

// Run serves registrations and deliveries until ctx is done, then closes every
// client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			h.mutex.Unlock()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.mutex.Unlock()
			h.logger.Debug("ws connected", zap.String("user_id", client.userID.String()), zap.Int("total_clients", h.ClientCount()))

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliveries:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.clients[d.userID]))
			for c := range h.clients[d.userID] {
				targets = append(targets, c)
			}
			h.mutex.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- d.payload:
				default:
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	if client == nil {
		return
	}
	h.mutex.Lock()
	if set, ok := h.clients[client.userID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			close(client.send)
		}
		if len(set) == 0 {
			delete(h.clients, client.userID)
		}
	}
	h.mutex.Unlock()
	h.logger.Debug("ws disconnected", zap.String("user_id", client.userID.String()))
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	h.unregister <- client
}

// NotifyMatch queues an event for userID. It never blocks; events are dropped
// when the queue is full.
func (h *Hub) NotifyMatch(userID uuid.UUID, eventType string, m match.Match) {
	if h == nil {
		return
	}
	b, err := json.Marshal(Event{
		Type:      eventType,
		MatchID:   m.ID,
		Status:    string(m.Status),
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	select {
	case h.deliveries <- delivery{userID: userID, payload: b}:
	default:
		h.logger.Warn("ws event dropped", zap.String("reason", "buffer_full"), zap.String("type", eventType))
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
