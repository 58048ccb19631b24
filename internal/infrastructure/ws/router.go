package ws

import (
	"sync"

	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/metrics"
)

// Router fans events out to every connection registered to a room. All
// publishes for one room flow through a single dispatch goroutine, so
// members observe room events in publish order. Different rooms dispatch
// fully in parallel.
type Router struct {
	registry *Registry
	logger   logging.Logger
	metrics  *metrics.Metrics

	queueSize int

	mu     sync.Mutex
	queues map[string]chan *WSMessage
	closed bool
	wg     sync.WaitGroup
}

func NewRouter(registry *Registry, queueSize int, logger logging.Logger, m *metrics.Metrics) *Router {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Router{
		registry:  registry,
		logger:    logger,
		metrics:   m,
		queueSize: queueSize,
		queues:    make(map[string]chan *WSMessage),
	}
}

// Publish enqueues an event for every current member of the room. Delivery
// is best effort: a member that disconnects mid-delivery is skipped, and a
// member whose send buffer is full is dropped rather than stalling the room.
func (r *Router) Publish(roomID, event string, payload any) {
	msg := &WSMessage{Type: event, RoomID: roomID, Data: payload}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	queue, ok := r.queues[roomID]
	if !ok {
		queue = make(chan *WSMessage, r.queueSize)
		r.queues[roomID] = queue
		r.wg.Add(1)
		go r.dispatch(roomID, queue)
	}
	r.mu.Unlock()

	r.metrics.ObserveBroadcast(event)
	queue <- msg
}

// PublishTo delivers to exactly one connection, for direct confirmations
// and errors.
func (r *Router) PublishTo(connID, event string, payload any) {
	c, ok := r.registry.Get(connID)
	if !ok {
		return
	}
	r.deliver(c, &WSMessage{Type: event, RoomID: c.RoomID, Data: payload})
}

// SendDirect delivers to a connection that may not have joined a room yet.
func (r *Router) SendDirect(c *Client, msg *WSMessage) {
	r.deliver(c, msg)
}

// Close stops all room dispatchers. Call only after the server has stopped
// accepting connections and publishes.
func (r *Router) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, queue := range r.queues {
		close(queue)
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Router) dispatch(roomID string, queue chan *WSMessage) {
	defer r.wg.Done()

	for msg := range queue {
		for _, c := range r.registry.MembersOf(roomID) {
			r.deliver(c, msg)
		}
	}
}

func (r *Router) deliver(c *Client, msg *WSMessage) {
	if c.TrySend(msg) {
		return
	}

	// Send buffer overflow: drop the connection instead of stalling.
	r.metrics.ObserveDroppedClient(msg.RoomID)
	r.logger.Warn(logging.WebSocket, logging.Broadcast, "send buffer full, dropping connection", map[logging.ExtraKey]any{
		logging.ConnectionID: c.ID,
		logging.RoomID:       msg.RoomID,
		logging.EventName:    msg.Type,
	})
	c.Close()
}
