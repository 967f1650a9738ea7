package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(userID string) *Client {
	return &Client{
		UserID: userID,
		send:   make(chan []byte, sendBuffer),
	}
}

type testEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// readEvent pulls the next event off a client's send channel.
func readEvent(t *testing.T, c *Client) testEvent {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var ev testEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("bad event payload: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return testEvent{}
	}
}

func expectOnlineUsers(t *testing.T, c *Client, want []string) {
	t.Helper()
	ev := readEvent(t, c)
	if ev.Event != EventOnlineUsers {
		t.Fatalf("expected %s event, got %s", EventOnlineUsers, ev.Event)
	}
	var got []string
	if err := json.Unmarshal(ev.Data, &got); err != nil {
		t.Fatalf("bad online users payload: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected online users %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected online users %v, got %v", want, got)
		}
	}
}

func expectNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		if ok {
			t.Fatalf("expected no event, got %s", payload)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubBroadcastsOnlineUsersOnRegister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient("alice")
	hub.register <- alice
	expectOnlineUsers(t, alice, []string{"alice"})

	bob := newTestClient("bob")
	hub.register <- bob
	expectOnlineUsers(t, alice, []string{"alice", "bob"})
	expectOnlineUsers(t, bob, []string{"alice", "bob"})
}

func TestHubBroadcastsOnDisconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient("alice")
	bob := newTestClient("bob")
	hub.register <- alice
	hub.register <- bob
	expectOnlineUsers(t, alice, []string{"alice"})
	expectOnlineUsers(t, alice, []string{"alice", "bob"})
	expectOnlineUsers(t, bob, []string{"alice", "bob"})

	hub.unregister <- bob
	expectOnlineUsers(t, alice, []string{"alice"})

	if hub.Present("bob") {
		t.Error("bob should not be present after disconnect")
	}
}

func TestHubStaleDisconnectKeepsNewerConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := newTestClient("alice")
	c2 := newTestClient("alice")

	hub.register <- c1
	expectOnlineUsers(t, c1, []string{"alice"})

	hub.register <- c2
	expectOnlineUsers(t, c2, []string{"alice"})

	// The superseded connection's disconnect arrives late. It must
	// not unmap the newer connection, and no broadcast fires.
	hub.unregister <- c1
	if !hub.Present("alice") {
		t.Fatal("alice should still be present through the newer connection")
	}
	expectNoEvent(t, c2)

	hub.SendToUser("alice", EventNewMessage, map[string]string{"text": "hi"})
	ev := readEvent(t, c2)
	if ev.Event != EventNewMessage {
		t.Errorf("expected %s on the newer connection, got %s", EventNewMessage, ev.Event)
	}
}

func TestSendToUserTargetsOnlyRecipient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient("alice")
	bob := newTestClient("bob")
	hub.register <- alice
	hub.register <- bob
	expectOnlineUsers(t, alice, []string{"alice"})
	expectOnlineUsers(t, alice, []string{"alice", "bob"})
	expectOnlineUsers(t, bob, []string{"alice", "bob"})

	hub.SendToUser("bob", EventNewMessage, map[string]string{"text": "hello"})

	ev := readEvent(t, bob)
	if ev.Event != EventNewMessage {
		t.Fatalf("expected %s, got %s", EventNewMessage, ev.Event)
	}
	var data map[string]string
	json.Unmarshal(ev.Data, &data)
	if data["text"] != "hello" {
		t.Errorf("expected text 'hello', got %q", data["text"])
	}

	expectNoEvent(t, alice)
}

func TestSendToAbsentUserIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient("alice")
	hub.register <- alice
	expectOnlineUsers(t, alice, []string{"alice"})

	// Nobody is registered as bob; the push goes nowhere.
	hub.SendToUser("bob", EventNewMessage, map[string]string{"text": "hi"})
	expectNoEvent(t, alice)
}
