package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// dialTestHub spins up a hub behind an httptest server and dials one client.
func dialTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()

	hub := NewHub(testLogger())
	hub.Start()
	t.Cleanup(hub.Stop)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ServeWS(hub, conn, "test-trace", testLogger())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func TestHub_ConnectionGreeting(t *testing.T) {
	_, conn := dialTestHub(t)

	event := readEvent(t, conn)
	assert.Equal(t, TypeConnection, event.Type)
	assert.Equal(t, "test-trace", event.TraceID)

	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
}

func TestHub_Broadcast(t *testing.T) {
	hub, conn := dialTestHub(t)

	// Drain the greeting first.
	readEvent(t, conn)

	hub.Broadcast(TypeDatasetUploaded, map[string]string{"dataset_id": "abc"})

	event := readEvent(t, conn)
	assert.Equal(t, TypeDatasetUploaded, event.Type)

	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", data["dataset_id"])
}

func TestHub_ClientCount(t *testing.T) {
	hub, conn := dialTestHub(t)
	readEvent(t, conn)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	// Must not block or panic with nobody listening.
	for i := 0; i < 100; i++ {
		hub.Broadcast(TypeDatasetDeleted, map[string]string{"dataset_id": "x"})
	}
}
