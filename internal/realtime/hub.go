package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// UserRoom returns the room every authenticated connection auto-joins.
// Notifications for the user are pushed here.
func UserRoom(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// PostRoom returns the room for live post events (new comments, poll results).
// Clients join and leave it explicitly over the socket.
func PostRoom(postID int64) string {
	return "post:" + strconv.FormatInt(postID, 10)
}

// Hub maintains room -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// room -> map[clientID]*Client
	rooms    map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per room
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishRoomEvent(room, event string, payload []byte) error
}

// RedisSubscriber subscribes to room channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeRoom(room string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		rooms:    make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Join adds a client to a room. Starts Redis subscription for the room when
// the first local client joins.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeRoom(room, func(event string, payload []byte) {
				h.Broadcast(room, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[room] = cancel
			}
		}
	}
	h.rooms[room][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined room", zap.String("client_id", c.ID), zap.String("room", room))
}

// Leave removes a client from a room. Cancels the Redis subscription when the
// last local client leaves.
func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[room]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, room)
			if cancel, ok := h.subs[room]; ok {
				cancel()
				delete(h.subs, room)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left room", zap.String("client_id", c.ID), zap.String("room", room))
}

// LeaveAll removes a client from every room it joined.
func (h *Hub) LeaveAll(c *Client) {
	c.mu.Lock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.rooms = make(map[string]struct{})
	c.mu.Unlock()
	for _, room := range rooms {
		h.Leave(room, c)
	}
}

// Broadcast sends a message to all local clients in a room.
func (h *Hub) Broadcast(room, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.rooms[room]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastAndPublish sends to local clients and publishes to Redis for other instances.
func (h *Hub) BroadcastAndPublish(room, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.Broadcast(room, event, json.RawMessage(data))
	if h.redis != nil {
		_ = h.redis.PublishRoomEvent(room, event, data)
	}
}

// PublishOnly publishes to Redis only (no local broadcast). Used for events
// where the Redis subscriber callback performs the broadcast once for all
// instances including this one, avoiding duplicate delivery to local clients.
func (h *Hub) PublishOnly(room, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		_ = h.redis.PublishRoomEvent(room, event, data)
		return
	}
	h.Broadcast(room, event, json.RawMessage(data))
}

// NotifyUser pushes an event to a user's personal room on every instance.
func (h *Hub) NotifyUser(userID int64, event string, payload interface{}) {
	h.BroadcastAndPublish(UserRoom(userID), event, payload)
}

// RoomCount returns the number of locally connected clients in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// validPostRoom reports whether a client-supplied room name is a post room.
// Clients may only join post rooms; user rooms are assigned by the server.
func validPostRoom(room string) bool {
	var id int64
	n, err := fmt.Sscanf(room, "post:%d", &id)
	return err == nil && n == 1 && id > 0
}
