// internal/app/system/realtime/hub.go
package realtime

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Envelope is one serialized event frame as written to a stream.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// connBuffer is the per-connection queue depth. A client that cannot
// drain this many events starts losing frames rather than stalling
// publishers.
const connBuffer = 64

// Conn is one client's event stream. Events arrive on Events() in
// publish order; each event is delivered at most once.
type Conn struct {
	id     uint64
	userID primitive.ObjectID
	ch     chan Envelope

	mu    sync.Mutex
	tasks map[primitive.ObjectID]struct{}
}

// Events returns the channel the stream handler drains.
func (c *Conn) Events() <-chan Envelope { return c.ch }

// ID returns the hub-assigned connection id. Clients use it to address
// subscription changes at this stream.
func (c *Conn) ID() uint64 { return c.id }

// Subscribe narrows the connection to the given task. A connection
// with no subscriptions receives every task event; once it subscribes
// it only receives events for its chosen tasks.
func (c *Conn) Subscribe(taskID primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tasks == nil {
		c.tasks = make(map[primitive.ObjectID]struct{})
	}
	c.tasks[taskID] = struct{}{}
}

// Unsubscribe removes a task subscription.
func (c *Conn) Unsubscribe(taskID primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tasks, taskID)
}

func (c *Conn) wants(taskID primitive.ObjectID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tasks) == 0 {
		return true
	}
	_, ok := c.tasks[taskID]
	return ok
}

// Hub fans events out to connected clients in process. It implements
// Broadcaster; handlers never talk to connections directly.
type Hub struct {
	log *zap.Logger

	mu     sync.RWMutex
	nextID uint64
	conns  map[uint64]*Conn
	closed bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		log:   logger,
		conns: make(map[uint64]*Conn),
	}
}

// Register attaches a new client stream for the user.
func (h *Hub) Register(userID primitive.ObjectID) *Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	c := &Conn{
		id:     h.nextID,
		userID: userID,
		ch:     make(chan Envelope, connBuffer),
	}
	if h.closed {
		close(c.ch)
		return c
	}
	h.conns[c.id] = c
	return c
}

// Unregister detaches the connection and closes its channel.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.id]; !ok {
		return
	}
	delete(h.conns, c.id)
	close(c.ch)
}

// ConnFor returns the user's connection with the given id. The user
// check keeps one user from steering another's subscriptions.
func (h *Hub) ConnFor(userID primitive.ObjectID, id uint64) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	if !ok || c.userID != userID {
		return nil, false
	}
	return c, true
}

// Close shuts the hub down and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.conns {
		delete(h.conns, id)
		close(c.ch)
	}
}

// send enqueues without blocking; a full client queue drops the frame.
func (h *Hub) send(c *Conn, ev Envelope) {
	select {
	case c.ch <- ev:
	default:
		h.log.Debug("dropping event for slow client",
			zap.String("event", ev.Event),
			zap.String("user_id", c.userID.Hex()))
	}
}

// BroadcastTask delivers a task event to every connection that wants
// it. Recipients are not authorization-checked here; the payload is
// ids only and the API enforces visibility on re-fetch.
func (h *Hub) BroadcastTask(ev TaskEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	env := Envelope{Event: ev.Type, Data: ev}
	for _, c := range h.conns {
		if c.wants(ev.TaskID) {
			h.send(c, env)
		}
	}
}

// NotifyUser delivers a notification event to the user's connections
// only.
func (h *Hub) NotifyUser(userID primitive.ObjectID, ev NotificationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	env := Envelope{Event: ev.Type, Data: ev}
	for _, c := range h.conns {
		if c.userID == userID {
			h.send(c, env)
		}
	}
}
