package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/pkg/contracts/events"
)

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func readUpdate(t *testing.T, c *websocket.Conn) Update {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var u Update
	require.NoError(t, c.ReadJSON(&u))
	return u
}

func TestHubDeliversToBattleSubscribers(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, nil)
	c := dial(t, hub)

	require.NoError(t, c.WriteJSON(ClientMsg{Type: "subscribe", BattleID: 7}))
	require.Eventually(t, func() bool { return hub.Subscribers(7) == 1 }, time.Second, 5*time.Millisecond)

	hub.Notify(8, "battle", "other battle")
	hub.Notify(7, "comments", []string{"gm"})

	u := readUpdate(t, c)
	assert.Equal(t, int64(7), u.BattleID)
	assert.Equal(t, "comments", u.Resource)

	// preços vão para todos
	hub.Notify(0, "prices", map[string]string{"eth": "2520"})
	u = readUpdate(t, c)
	assert.Equal(t, "prices", u.Resource)

	require.NoError(t, c.WriteJSON(ClientMsg{Type: "unsubscribe", BattleID: 7}))
	require.Eventually(t, func() bool { return hub.Subscribers(7) == 0 }, time.Second, 5*time.Millisecond)
}

type invalidations struct {
	mu  sync.Mutex
	got []events.Envelope
}

func (i *invalidations) Invalidate(e events.Envelope) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.got = append(i.got, e)
}

func (i *invalidations) len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.got)
}

func TestRedisSubscriberInvalidatesAndForwards(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hub := NewHub(func(*http.Request) bool { return true }, nil)
	inv := &invalidations{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartRedisSubscriber(ctx, rdb, "battle_updates_broadcast", hub, inv, zap.NewNop())

	c := dial(t, hub)
	require.NoError(t, c.WriteJSON(ClientMsg{Type: "subscribe", BattleID: 3}))
	require.Eventually(t, func() bool { return hub.Subscribers(3) == 1 }, time.Second, 5*time.Millisecond)

	payload, _ := json.Marshal(events.Envelope{ID: "e1", Type: events.TypeCommentAdded, BattleID: 3})
	require.Eventually(t, func() bool {
		n, err := rdb.Publish(ctx, "battle_updates_broadcast", payload).Result()
		return err == nil && n > 0
	}, time.Second, 10*time.Millisecond)

	u := readUpdate(t, c)
	assert.Equal(t, "event", u.Resource)
	assert.Equal(t, int64(3), u.BattleID)
	assert.GreaterOrEqual(t, inv.len(), 1)
}
