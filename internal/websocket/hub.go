package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"vidshelf-backend/internal/models"
	"vidshelf-backend/internal/services"
)

const (
	writeWait      = 10 * time.Second
	publishTimeout = 5 * time.Second
	sendBuffer     = 16
	publishBuffer  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type sessionLookup interface {
	Get(id uuid.UUID) (*services.CollectionManager, error)
}

// client owns one socket. Only writePump writes to conn; send is closed by
// the hub when the client is unregistered.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

type outboundMessage struct {
	sessionID uuid.UUID
	data      []byte
}

// Hub pushes collection snapshots to every socket watching a session. With a
// Redis client, snapshots travel through pub/sub so any replica can serve the
// socket; without one they are broadcast in-process.
//
// PublishState never waits on a socket or on Redis. Clients that fall more
// than sendBuffer messages behind are disconnected.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*client
	redisClient *redis.Client
	cancelFuncs map[uuid.UUID]context.CancelFunc

	outbound  chan outboundMessage
	done      chan struct{}
	closeOnce sync.Once
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		connections: make(map[uuid.UUID][]*client),
		redisClient: redisClient,
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		done:        make(chan struct{}),
	}
	if redisClient != nil {
		h.outbound = make(chan outboundMessage, publishBuffer)
		go h.runPublisher()
	}
	return h
}

func channelFor(sessionID uuid.UUID) string {
	return "session_updates:" + sessionID.String()
}

// Handler upgrades GET /sessions/{sessionID}/ws and sends the current state
// right away, then every later change.
func (h *Hub) Handler(sessions sessionLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
		if err != nil {
			http.Error(w, "Invalid session ID", http.StatusBadRequest)
			return
		}

		manager, err := sessions.Get(sessionID)
		if err != nil {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
		h.registerConnection(sessionID, c)
		go c.writePump()

		// Snapshots carry a version, so one that races this initial send is harmless.
		if data, err := encodeState(sessionID, manager.State()); err == nil {
			select {
			case c.send <- data:
			default:
			}
		}

		// Keep connection alive and handle disconnect
		go func() {
			defer h.unregisterConnection(sessionID, c)
			for {
				_, _, err := conn.ReadMessage()
				if err != nil {
					break
				}
			}
		}()
	}
}

// PublishState implements services.StatePublisher.
func (h *Hub) PublishState(ctx context.Context, sessionID uuid.UUID, state models.CollectionState) {
	data, err := encodeState(sessionID, state)
	if err != nil {
		log.Printf("WebSocket: failed to encode state for session %s: %v", sessionID, err)
		return
	}

	if h.redisClient == nil {
		h.broadcast(sessionID, data)
		return
	}

	select {
	case h.outbound <- outboundMessage{sessionID: sessionID, data: data}:
	case <-h.done:
	default:
		log.Printf("WebSocket: publish queue full, dropping state for session %s", sessionID)
	}
}

// CloseSession disconnects every socket watching sessionID.
func (h *Hub) CloseSession(sessionID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections[sessionID] {
		c.conn.Close()
	}
}

func (h *Hub) ConnectionCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}

// Close stops the Redis publisher and drops every socket.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, id)
	}
	for _, conns := range h.connections {
		for _, c := range conns {
			c.conn.Close()
		}
	}
}

func encodeState(sessionID uuid.UUID, state models.CollectionState) ([]byte, error) {
	return json.Marshal(models.WSMessage{
		Type:      models.WSTypeState,
		SessionID: sessionID,
		Payload:   state,
	})
}

func (h *Hub) runPublisher() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.outbound:
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			err := h.redisClient.Publish(ctx, channelFor(msg.sessionID), msg.data).Err()
			cancel()
			if err != nil {
				log.Printf("WebSocket: redis publish failed for session %s: %v", msg.sessionID, err)
			}
		}
	}
}

func (h *Hub) registerConnection(sessionID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[sessionID] = append(h.connections[sessionID], c)

	// Start pub/sub subscription if this is the first connection for this session
	if len(h.connections[sessionID]) == 1 && h.redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[sessionID] = cancel
		go h.subscribeToPubSub(ctx, sessionID)
	}

	log.Printf("WebSocket connected: session %s (total: %d)", sessionID, len(h.connections[sessionID]))
}

func (h *Hub) unregisterConnection(sessionID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.connections[sessionID]
	for i, existing := range conns {
		if existing == c {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			close(c.send)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
		if cancel, ok := h.cancelFuncs[sessionID]; ok {
			cancel()
			delete(h.cancelFuncs, sessionID)
		}
	}

	log.Printf("WebSocket disconnected: session %s", sessionID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, sessionID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, channelFor(sessionID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(sessionID, []byte(msg.Payload))
		}
	}
}

// broadcast never blocks. Sends happen under the read lock so that
// unregisterConnection cannot close a channel mid-send.
func (h *Hub) broadcast(sessionID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.connections[sessionID] {
		select {
		case c.send <- data:
		default:
			log.Printf("WebSocket: client too slow, disconnecting from session %s", sessionID)
			c.conn.Close()
		}
	}
}
