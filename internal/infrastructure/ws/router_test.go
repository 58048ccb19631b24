package ws

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/metrics"
)

type nopLogger struct{}

func (nopLogger) Init() {}

func (nopLogger) Debug(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Debugf(string, ...any)                                                         {}
func (nopLogger) Info(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Infof(string, ...any)                                                          {}
func (nopLogger) Warn(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Warnf(string, ...any)                                                          {}
func (nopLogger) Error(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Errorf(string, ...any)                                                         {}
func (nopLogger) Fatal(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Fatalf(string, ...any)                                                         {}

func newTestRouter(t *testing.T, registry *Registry) *Router {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	r := NewRouter(registry, 64, nopLogger{}, m)
	t.Cleanup(r.Close)
	return r
}

func recvOne(t *testing.T, c *Client) *WSMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublishReachesAllMembers(t *testing.T) {
	registry := NewRegistry()
	router := newTestRouter(t, registry)

	c1 := newTestClient("c1")
	c2 := newTestClient("c2")
	_, err := registry.Join(c1, "room-1")
	require.NoError(t, err)
	_, err = registry.Join(c2, "room-1")
	require.NoError(t, err)

	router.Publish("room-1", "chat_message", map[string]string{"hello": "world"})

	for _, c := range []*Client{c1, c2} {
		msg := recvOne(t, c)
		assert.Equal(t, "chat_message", msg.Type)
		assert.Equal(t, "room-1", msg.RoomID)
	}
}

func TestPublishPreservesOrderPerRoom(t *testing.T) {
	registry := NewRegistry()
	router := newTestRouter(t, registry)

	c := &Client{ID: "c1", send: make(chan *WSMessage, 16), done: make(chan struct{})}
	_, err := registry.Join(c, "room-1")
	require.NoError(t, err)

	events := []string{"e1", "e2", "e3", "e4", "e5"}
	for _, ev := range events {
		router.Publish("room-1", ev, nil)
	}

	for _, want := range events {
		assert.Equal(t, want, recvOne(t, c).Type)
	}
}

func TestSlowMemberIsDroppedNotBlocking(t *testing.T) {
	registry := NewRegistry()
	router := newTestRouter(t, registry)

	slow := &Client{ID: "slow", send: make(chan *WSMessage, 1), done: make(chan struct{})}
	fast := &Client{ID: "fast", send: make(chan *WSMessage, 16), done: make(chan struct{})}
	_, err := registry.Join(slow, "room-1")
	require.NoError(t, err)
	_, err = registry.Join(fast, "room-1")
	require.NoError(t, err)

	// The slow member never drains; its one-slot buffer overflows on the
	// second publish and it gets closed instead of stalling the room.
	for i := 0; i < 5; i++ {
		router.Publish("room-1", "burst", nil)
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, "burst", recvOne(t, fast).Type)
	}

	select {
	case <-slow.done:
		// dropped
	case <-time.After(2 * time.Second):
		t.Fatal("slow member was not dropped")
	}
}

func TestPublishToUnknownConnIsNoop(t *testing.T) {
	registry := NewRegistry()
	router := newTestRouter(t, registry)

	router.PublishTo("missing", "chat_message", nil)
}
