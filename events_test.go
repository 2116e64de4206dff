package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialEventHub(t *testing.T, hub *EventHub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// Give the handler a beat to register the subscription.
	time.Sleep(50 * time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestEventHubBroadcast(t *testing.T) {
	hub := NewEventHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialEventHub(t, hub)

	hub.Publish(AssetIssuedEventType, map[string]any{"wallet_label": "issuer"})

	evt := readEvent(t, conn)
	assert.Equal(t, AssetIssuedEventType, evt.Type)
	assert.Equal(t, "issuer", evt.Data["wallet_label"])
	assert.False(t, evt.Timestamp.IsZero())
}

func TestEventHubSessionObserver(t *testing.T) {
	hub := NewEventHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dialEventHub(t, hub)

	node := newTestNode(t)
	session := NewSession(NodeConfig{}, nil)
	session.SetObserver(hub)

	session.RegisterService(newTestService(t, node))
	evt := readEvent(t, conn)
	assert.Equal(t, ServiceRegisteredEventType, evt.Type)
	assert.Equal(t, true, evt.Data["running"])

	session.AddWallet(newLabeledWallet(t, newTestConnection(t, node), "w1"))
	evt = readEvent(t, conn)
	assert.Equal(t, WalletAddedEventType, evt.Type)
}

func TestEventHubPublishNeverBlocks(t *testing.T) {
	// No Run loop draining the queue: publishing past capacity must drop,
	// not block.
	hub := NewEventHub(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < eventQueueCapacity*2; i++ {
			hub.Publish(WalletAddedEventType, nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestEventHubMultipleSubscribers(t *testing.T) {
	hub := NewEventHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	first := dialEventHub(t, hub)
	second := dialEventHub(t, hub)

	hub.Publish(ServiceRegisteredEventType, map[string]any{"working_dir": "/tmp/x"})

	assert.Equal(t, ServiceRegisteredEventType, readEvent(t, first).Type)
	assert.Equal(t, ServiceRegisteredEventType, readEvent(t, second).Type)
}
