package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForClientCount(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %s: client count never reached %d", userID, want)
}

func TestHubRoutesMessagesToUserConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice1 := NewClient(hub, nil, "alice")
	alice2 := NewClient(hub, nil, "alice")
	bob := NewClient(hub, nil, "bob")
	hub.register <- alice1
	hub.register <- alice2
	hub.register <- bob
	waitForClientCount(t, hub, "alice", 2)
	waitForClientCount(t, hub, "bob", 1)

	hub.BroadcastToUser("alice", map[string]interface{}{"post_id": "p1"})

	for _, client := range []*Client{alice1, alice2} {
		select {
		case msg := <-client.send:
			assert.Equal(t, "notification", msg.Type)
			assert.Equal(t, "p1", msg.Payload["post_id"])
		case <-time.After(time.Second):
			t.Fatal("alice connection never received the message")
		}
	}

	select {
	case msg := <-bob.send:
		t.Fatalf("bob must not receive alice's message, got %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, "carol")
	hub.register <- client
	waitForClientCount(t, hub, "carol", 1)

	hub.unregister <- client
	waitForClientCount(t, hub, "carol", 0)

	_, open := <-client.send
	require.False(t, open, "send channel must be closed on unregister")
}

func TestStalledConnectionIsEvictedDuringFanOut(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	stalled := NewClient(hub, nil, "dave")
	hub.register <- stalled
	waitForClientCount(t, hub, "dave", 1)

	// A concurrent reader while the hub loop evicts the stalled connection
	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if hub.ClientCount("dave") == 0 {
				return
			}
		}
	}()

	// Nothing drains the send buffer; overflowing it forces the hub to
	// drop the connection mid-broadcast
	for i := 0; i <= cap(stalled.send); i++ {
		hub.BroadcastToUser("dave", map[string]interface{}{"seq": i})
	}

	waitForClientCount(t, hub, "dave", 0)
	<-done

	// Draining terminates only because the hub closed the channel on eviction
	for range stalled.send {
	}
}

func TestBroadcastToUnknownUserIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// No client registered; must not block or panic
	hub.BroadcastToUser("nobody", map[string]interface{}{"x": 1})
	assert.Equal(t, 0, hub.ClientCount("nobody"))
}
