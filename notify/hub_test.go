package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidrashid-git/storefront/cart"
)

func dial(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, sessionID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Subscribers(sessionID) > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func readNotification(t *testing.T, conn *websocket.Conn) cart.Notification {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var n cart.Notification
	require.NoError(t, json.Unmarshal(data, &n))
	return n
}

func TestHubDeliversToSession(t *testing.T) {
	hub := NewHub(nil)
	conn := dial(t, hub, "s1")

	at := time.Date(2024, 12, 16, 9, 30, 0, 0, time.UTC)
	hub.For("s1").Notify(cart.Notification{Level: cart.LevelSuccess, Message: "2 Almond Box added to the cart.", At: at})

	n := readNotification(t, conn)
	assert.Equal(t, cart.LevelSuccess, n.Level)
	assert.Equal(t, "2 Almond Box added to the cart.", n.Message)
	assert.True(t, at.Equal(n.At))
}

func TestHubIsolatesSessions(t *testing.T) {
	hub := NewHub(nil)
	other := dial(t, hub, "other")
	mine := dial(t, hub, "mine")

	hub.Publish("mine", cart.Notification{Level: cart.LevelError, Message: "boom"})
	hub.Publish("other", cart.Notification{Level: cart.LevelLoading, Message: "Redirecting..."})

	assert.Equal(t, "boom", readNotification(t, mine).Message)
	assert.Equal(t, "Redirecting...", readNotification(t, other).Message)
}

func TestHubDropsWithoutSubscriber(t *testing.T) {
	hub := NewHub(nil)

	assert.NotPanics(t, func() {
		hub.Publish("nobody", cart.Notification{Level: cart.LevelSuccess, Message: "lost"})
	})
	assert.Zero(t, hub.Subscribers("nobody"))
}

func TestHubStoreIntegration(t *testing.T) {
	hub := NewHub(nil)
	conn := dial(t, hub, "s1")
	store := cart.NewStore(cart.WithNotifier(hub.For("s1")))

	err := store.Remove("ghost")
	require.ErrorIs(t, err, cart.ErrNotFound)

	n := readNotification(t, conn)
	assert.Equal(t, cart.LevelError, n.Level)
	assert.Contains(t, n.Message, "ghost")
}

func TestHubCloseSession(t *testing.T) {
	hub := NewHub(nil)
	conn := dial(t, hub, "s1")

	hub.CloseSession("s1")

	assert.Zero(t, hub.Subscribers("s1"))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "the server closes the stream")
}
