package service

import (
	"context"
	"encoding/json"
	"lingo_edu_backend/pkg/logger"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 32
	outboxSize     = 1024

	AttemptEventsChannel = "attempt_events"
)

const (
	EventCountdownTick    = "COUNTDOWN_TICK"
	EventCountdownExpired = "COUNTDOWN_EXPIRED"
	EventAttemptSubmitted = "ATTEMPT_SUBMITTED"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type AttemptEvent struct {
	Type      string      `json:"type"`
	AttemptID string      `json:"attemptId"`
	Data      interface{} `json:"data,omitempty"`
}

type CountdownTickData struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

// EventPublisher delivers attempt events to a student's open connections. Publish must not block.
type EventPublisher interface {
	Publish(studentID uint, event AttemptEvent)
}

type hubClient struct {
	hub       *AttemptHub
	conn      *websocket.Conn
	send      chan []byte
	studentID uint
	attemptID string // empty subscribes to every attempt of the student
}

// readPump only services control frames; clients never send events.
func (c *hubClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("Attempt events socket closed unexpectedly", zap.Error(err), zap.Uint("studentId", c.studentID))
			}
			return
		}
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	clients map[uint]map[*hubClient]struct{}
	mu      sync.RWMutex
}

type pubSubMessage struct {
	StudentID uint         `json:"studentId"`
	Event     AttemptEvent `json:"event"`
}

// AttemptHub fans attempt events out to websocket clients. With Redis configured every instance
// publishes to and consumes from AttemptEventsChannel, so a student connected to any instance gets
// events raised on another.
type AttemptHub struct {
	shards [shardCount]*shard
	outbox chan pubSubMessage
	redis  *redis.Client
}

func NewAttemptHub(rdb *redis.Client) *AttemptHub {
	h := &AttemptHub{
		outbox: make(chan pubSubMessage, outboxSize),
		redis:  rdb,
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{clients: make(map[uint]map[*hubClient]struct{})}
	}
	return h
}

func (h *AttemptHub) getShard(studentID uint) *shard {
	return h.shards[studentID%shardCount]
}

// Publish queues the event and drops it when the queue is full.
func (h *AttemptHub) Publish(studentID uint, event AttemptEvent) {
	select {
	case h.outbox <- pubSubMessage{StudentID: studentID, Event: event}:
	default:
		logger.Log.Warn("Attempt event dropped, outbox full", zap.String("type", event.Type), zap.String("attemptId", event.AttemptID))
	}
}

// Run drains the outbox until ctx is done, then closes every connection.
func (h *AttemptHub) Run(ctx context.Context) error {
	defer h.Stop()

	if h.redis != nil {
		pubsub := h.redis.Subscribe(ctx, AttemptEventsChannel)
		defer pubsub.Close()
		go h.consume(pubsub.Channel())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-h.outbox:
			h.dispatch(ctx, msg)
		}
	}
}

func (h *AttemptHub) dispatch(ctx context.Context, msg pubSubMessage) {
	if h.redis == nil {
		h.deliverLocal(msg)
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("Attempt event marshal error", zap.Error(err))
		return
	}
	if err := h.redis.Publish(ctx, AttemptEventsChannel, payload).Err(); err != nil {
		logger.Log.Warn("Redis publish failed, delivering locally", zap.Error(err))
		h.deliverLocal(msg)
	}
}

func (h *AttemptHub) consume(ch <-chan *redis.Message) {
	for m := range ch {
		var msg pubSubMessage
		if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
			logger.Log.Error("PubSub unmarshal error", zap.Error(err))
			continue
		}
		h.deliverLocal(msg)
	}
}

func (h *AttemptHub) deliverLocal(msg pubSubMessage) {
	payload, err := json.Marshal(msg.Event)
	if err != nil {
		return
	}

	s := h.getShard(msg.StudentID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients[msg.StudentID] {
		if c.attemptID != "" && c.attemptID != msg.Event.AttemptID {
			continue
		}
		select {
		case c.send <- payload:
		default:
		}
	}
}

func (h *AttemptHub) register(c *hubClient) {
	s := h.getShard(c.studentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c.studentID] == nil {
		s.clients[c.studentID] = make(map[*hubClient]struct{})
	}
	s.clients[c.studentID][c] = struct{}{}
}

func (h *AttemptHub) unregister(c *hubClient) {
	s := h.getShard(c.studentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.clients[c.studentID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(s.clients, c.studentID)
	}
}

// ConnectedClients counts live connections for a student.
func (h *AttemptHub) ConnectedClients(studentID uint) int {
	s := h.getShard(studentID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[studentID])
}

func (h *AttemptHub) Stop() {
	closed := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for id, set := range s.clients {
			for c := range set {
				close(c.send)
				closed++
			}
			delete(s.clients, id)
		}
		s.mu.Unlock()
	}
	logger.Log.Info("AttemptHub stopped", zap.Int("closedConnections", closed))
}

// ServeAttemptEvents upgrades the request and streams the student's events for attemptID.
func ServeAttemptEvents(hub *AttemptHub, w http.ResponseWriter, r *http.Request, studentID uint, attemptID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("studentId", studentID))
		return
	}
	c := &hubClient{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 64),
		studentID: studentID,
		attemptID: attemptID,
	}
	hub.register(c)

	go c.writePump()
	go c.readPump()
}
